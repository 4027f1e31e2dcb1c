package audit

import (
	"context"
	"testing"

	"github.com/swissenergydata/decipher/internal/orchestrator"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.Record(ctx, orchestrator.AuditEntry{
		Query:          "CO2 emissions in 2030",
		Persona:        "citizen",
		RoutedAgents:   []string{"data_interpreter", "scenario_analyst"},
		AgentConfs:     map[string]float64{"data_interpreter": 0.55},
		FinalConf:      0.55,
		DurationMillis: 1200,
	})
	l.Record(ctx, orchestrator.AuditEntry{
		Query:        "what is WWB",
		Persona:      "student",
		RoutedAgents: []string{"scenario_analyst"},
		FailOpen:     true,
	})

	entries, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Query != "what is WWB" {
		t.Errorf("first entry = %q", entries[0].Query)
	}
	if !entries[0].FailOpen {
		t.Error("fail-open flag lost")
	}
	if entries[1].AgentConfs["data_interpreter"] != 0.55 {
		t.Errorf("agent confs = %v", entries[1].AgentConfs)
	}
	if len(entries[1].RoutedAgents) != 2 {
		t.Errorf("routed agents = %v", entries[1].RoutedAgents)
	}
	if entries[1].CreatedAt.IsZero() {
		t.Error("created_at not recorded")
	}
}

func TestRecentLimit(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		l.Record(ctx, orchestrator.AuditEntry{Query: "q", RoutedAgents: []string{"a"}})
	}

	entries, err := l.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestAgentCounts(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.Record(ctx, orchestrator.AuditEntry{RoutedAgents: []string{"data_interpreter", "policy_context"}})
	l.Record(ctx, orchestrator.AuditEntry{RoutedAgents: []string{"data_interpreter"}})

	counts, err := l.AgentCounts(ctx)
	if err != nil {
		t.Fatalf("AgentCounts: %v", err)
	}
	if counts["data_interpreter"] != 2 || counts["policy_context"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
