package orchestrator

import (
	"time"

	"github.com/swissenergydata/decipher/internal/agent"
	"github.com/swissenergydata/decipher/internal/config"
)

// Turn is one query and its answer within a session.
type Turn struct {
	Query     string         `json:"query"`
	Response  agent.Response `json:"response"`
	Persona   config.Persona `json:"persona"`
	Timestamp time.Time      `json:"timestamp"`
}

// Session holds one conversation's linear history. A session is owned by a
// single control flow; callers that share one across goroutines must
// serialize the whole turn themselves. History lives in memory only and dies
// with the process.
type Session struct {
	ID      string
	Persona config.Persona
	turns   []Turn
}

// NewSession starts an empty session for the given persona.
func NewSession(id string, persona config.Persona) *Session {
	if persona == "" {
		persona = config.PersonaCitizen
	}
	return &Session{ID: id, Persona: persona}
}

// Append records a completed turn.
func (s *Session) Append(query string, resp agent.Response) {
	s.turns = append(s.turns, Turn{
		Query:     query,
		Response:  resp,
		Persona:   s.Persona,
		Timestamp: time.Now(),
	})
}

// Turns returns the session history in order.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear discards the history, keeping the session and persona.
func (s *Session) Clear() {
	s.turns = nil
}

// recentTurns returns the last n turns of a history.
func recentTurns(history []Turn, n int) []Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
