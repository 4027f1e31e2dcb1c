// Package audit persists a queryable log of processed queries: which agents
// the router selected, whether routing failed open, and how confident the
// final answer was.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/swissenergydata/decipher/internal/orchestrator"
)

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at    TEXT NOT NULL,
	query         TEXT NOT NULL,
	persona       TEXT NOT NULL,
	routed_agents TEXT NOT NULL,
	fail_open     INTEGER NOT NULL,
	agent_confs   TEXT NOT NULL,
	final_conf    REAL NOT NULL,
	duration_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at);
`

// Log is a SQLite-backed audit log. Safe for concurrent use.
type Log struct {
	db *sql.DB
}

// Open creates or opens the audit database under dir.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "audit.db"))
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database.
func (l *Log) Close() error { return l.db.Close() }

// Record appends one entry. Auditing is best effort; failures are logged and
// never surfaced to the query path.
func (l *Log) Record(ctx context.Context, e orchestrator.AuditEntry) {
	agents, _ := json.Marshal(e.RoutedAgents)
	confs, _ := json.Marshal(e.AgentConfs)

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO invocations (created_at, query, persona, routed_agents, fail_open, agent_confs, final_conf, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		e.Query, e.Persona, string(agents), boolInt(e.FailOpen), string(confs), e.FinalConf, e.DurationMillis)
	if err != nil {
		log.Printf("audit: recording entry: %v", err)
	}
}

// Entry is one stored invocation, as returned by queries.
type Entry struct {
	ID             int64              `json:"id"`
	CreatedAt      time.Time          `json:"created_at"`
	Query          string             `json:"query"`
	Persona        string             `json:"persona"`
	RoutedAgents   []string           `json:"routed_agents"`
	FailOpen       bool               `json:"fail_open"`
	AgentConfs     map[string]float64 `json:"agent_confs"`
	FinalConf      float64            `json:"final_conf"`
	DurationMillis int64              `json:"duration_ms"`
}

// Recent returns the latest entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, created_at, query, persona, routed_agents, fail_open, agent_confs, final_conf, duration_ms
		 FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created, agents, confs string
		var failOpen int
		if err := rows.Scan(&e.ID, &created, &e.Query, &e.Persona, &agents, &failOpen, &confs, &e.FinalConf, &e.DurationMillis); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		e.FailOpen = failOpen != 0
		if err := json.Unmarshal([]byte(agents), &e.RoutedAgents); err != nil {
			e.RoutedAgents = nil
		}
		if err := json.Unmarshal([]byte(confs), &e.AgentConfs); err != nil {
			e.AgentConfs = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AgentCounts returns how often each agent was routed to across all entries.
func (l *Log) AgentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT routed_agents FROM invocations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var agents string
		if err := rows.Scan(&agents); err != nil {
			return nil, err
		}
		var names []string
		if err := json.Unmarshal([]byte(agents), &names); err != nil {
			continue
		}
		for _, n := range names {
			counts[n]++
		}
	}
	return counts, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
