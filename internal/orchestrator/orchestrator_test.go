package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/swissenergydata/decipher/internal/agent"
	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/llm"
)

// scriptedProvider answers routing calls (JSONMode) and synthesis calls
// separately, counting each.
type scriptedProvider struct {
	routing       string
	routingErr    error
	synthesis     string
	synthesisErr  error
	mu            sync.Mutex
	routingCalls  int
	synthCalls    int
	lastSynthSys  string
	lastSynthUser string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.JSONMode {
		p.routingCalls++
		if p.routingErr != nil {
			return nil, p.routingErr
		}
		return &llm.CompletionResponse{Content: p.routing}, nil
	}

	p.synthCalls++
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			p.lastSynthSys = m.Content
		case llm.RoleUser:
			p.lastSynthUser = m.Content
		}
	}
	if p.synthesisErr != nil {
		return nil, p.synthesisErr
	}
	return &llm.CompletionResponse{Content: p.synthesis}, nil
}

// stubAgent is a minimal Specialist counting its invocations.
type stubAgent struct {
	name       string
	content    string
	confidence float64
	sources    []string
	fail       bool
	calls      atomic.Int32
}

func (s *stubAgent) Name() string        { return s.name }
func (s *stubAgent) Description() string { return "stub" }

func (s *stubAgent) Identify(ctx context.Context, query string) (*agent.Evidence, error) {
	s.calls.Add(1)
	return &agent.Evidence{Sources: s.sources}, nil
}

func (s *stubAgent) Analyze(ctx context.Context, query string, ev *agent.Evidence) error {
	return nil
}

func (s *stubAgent) Generate(ctx context.Context, query string, ev *agent.Evidence) (string, error) {
	if s.fail {
		return "", errors.New("simulated provider error")
	}
	return s.content, nil
}

func (s *stubAgent) Confidence(ev *agent.Evidence) float64 { return s.confidence }

// captureRecorder keeps the entries it receives.
type captureRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *captureRecorder) Record(ctx context.Context, e AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func TestRoutingSelectsSubset(t *testing.T) {
	a := &stubAgent{name: "alpha", content: "alpha says", confidence: 0.7}
	b := &stubAgent{name: "beta", content: "beta says", confidence: 0.5}
	p := &scriptedProvider{
		routing:   `{"agents": ["beta"], "reasoning": "tabular question"}`,
		synthesis: "combined",
	}

	o := New(p, "m", 500, []agent.Specialist{a, b}, nil)
	resp := o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	if a.calls.Load() != 0 {
		t.Error("unselected agent was invoked")
	}
	if b.calls.Load() != 1 {
		t.Error("selected agent was not invoked")
	}
	if resp.Content != "combined" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestRoutingFailsOpen(t *testing.T) {
	agents := []agent.Specialist{
		&stubAgent{name: "alpha", content: "a", confidence: 0.6},
		&stubAgent{name: "beta", content: "b", confidence: 0.6},
		&stubAgent{name: "gamma", content: "c", confidence: 0.6},
	}
	rec := &captureRecorder{}
	p := &scriptedProvider{routing: "not json at all", synthesis: "combined"}

	o := New(p, "m", 500, agents, rec)
	o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	for _, a := range agents {
		if a.(*stubAgent).calls.Load() != 1 {
			t.Errorf("agent %s not invoked in fail-open", a.Name())
		}
	}

	if len(rec.entries) != 1 {
		t.Fatalf("got %d audit entries", len(rec.entries))
	}
	e := rec.entries[0]
	if !e.FailOpen {
		t.Error("audit entry does not mark fail-open")
	}
	if len(e.RoutedAgents) != len(agents) {
		t.Errorf("routed agents = %v", e.RoutedAgents)
	}
}

func TestRoutingErrorFailsOpen(t *testing.T) {
	a := &stubAgent{name: "alpha", content: "a", confidence: 0.6}
	p := &scriptedProvider{routingErr: errors.New("timeout"), synthesis: "combined"}

	o := New(p, "m", 500, []agent.Specialist{a}, nil)
	o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	if a.calls.Load() != 1 {
		t.Error("agent not invoked after routing error")
	}
}

func TestAggregateConfidenceBounded(t *testing.T) {
	agents := []agent.Specialist{
		&stubAgent{name: "alpha", content: "a", confidence: 0.8},
		&stubAgent{name: "beta", content: "b", confidence: 0.4},
	}
	p := &scriptedProvider{routing: `{"agents": ["alpha", "beta"]}`, synthesis: "combined"}

	o := New(p, "m", 500, agents, nil)
	resp := o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	if resp.Confidence > 0.8 {
		t.Errorf("aggregate confidence %v exceeds max individual 0.8", resp.Confidence)
	}
	if resp.Confidence <= 0 || resp.Confidence > 1 {
		t.Errorf("confidence %v out of range", resp.Confidence)
	}
}

func TestAgentFailureIsolated(t *testing.T) {
	good := &stubAgent{name: "good", content: "usable answer", confidence: 0.7, sources: []string{"a.csv"}}
	bad := &stubAgent{name: "bad", fail: true}
	p := &scriptedProvider{routing: `{"agents": ["good", "bad"]}`, synthesis: "combined"}

	o := New(p, "m", 500, []agent.Specialist{good, bad}, nil)
	resp := o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	if resp.Content == "" || resp.Confidence <= 0 {
		t.Errorf("response unusable despite a succeeding agent: %+v", resp)
	}
	if resp.Confidence > 0.7 {
		t.Errorf("confidence %v exceeds the succeeding agent's 0.7", resp.Confidence)
	}
	if len(resp.DataSources) != 1 || resp.DataSources[0] != "a.csv" {
		t.Errorf("sources = %v", resp.DataSources)
	}
}

func TestZeroUsableSkipsSynthesis(t *testing.T) {
	agents := []agent.Specialist{
		&stubAgent{name: "alpha", fail: true},
		&stubAgent{name: "beta", fail: true},
	}
	p := &scriptedProvider{routing: `{"agents": ["alpha", "beta"]}`}

	o := New(p, "m", 500, agents, nil)
	resp := o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	if resp.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", resp.Confidence)
	}
	if len(resp.DataSources) != 0 {
		t.Errorf("sources = %v, want empty", resp.DataSources)
	}
	if resp.Content == "" {
		t.Error("no explanatory content")
	}
	if p.synthCalls != 0 {
		t.Errorf("synthesis called %d times, want 0", p.synthCalls)
	}
}

func TestSynthesisFailureDegradesToBestAgent(t *testing.T) {
	agents := []agent.Specialist{
		&stubAgent{name: "weak", content: "weak answer", confidence: 0.4},
		&stubAgent{name: "strong", content: "strong answer", confidence: 0.8},
	}
	p := &scriptedProvider{
		routing:      `{"agents": ["weak", "strong"]}`,
		synthesisErr: errors.New("rate limited"),
	}

	o := New(p, "m", 500, agents, nil)
	resp := o.Process(context.Background(), "q", config.PersonaCitizen, nil)

	if resp.Content != "strong answer" {
		t.Errorf("content = %q, want the strongest contribution", resp.Content)
	}
	if resp.Confidence <= 0 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
}

func TestPersonaShapesSynthesisPrompt(t *testing.T) {
	a := &stubAgent{name: "alpha", content: "a", confidence: 0.6}
	p := &scriptedProvider{routing: `{"agents": ["alpha"]}`, synthesis: "combined"}

	o := New(p, "m", 500, []agent.Specialist{a}, nil)
	o.Process(context.Background(), "q", config.PersonaPolicymaker, nil)

	if !strings.Contains(p.lastSynthSys, "policymaker") {
		t.Errorf("synthesis system prompt lacks persona instruction:\n%s", p.lastSynthSys)
	}
}

func TestConversationHistoryFlowsIntoRouting(t *testing.T) {
	a := &stubAgent{name: "alpha", content: "a", confidence: 0.6}
	p := &scriptedProvider{routing: `{"agents": ["alpha"]}`, synthesis: "combined"}

	o := New(p, "m", 500, []agent.Specialist{a}, nil)
	session := NewSession("s1", config.PersonaCitizen)

	resp := o.Process(context.Background(), "first question", session.Persona, session.Turns())
	session.Append("first question", resp)
	o.Process(context.Background(), "follow-up", session.Persona, session.Turns())

	if len(session.Turns()) != 1 {
		t.Errorf("session has %d turns, want 1 appended", len(session.Turns()))
	}
	if p.routingCalls != 2 {
		t.Errorf("routing called %d times", p.routingCalls)
	}
}

func TestSessionClear(t *testing.T) {
	s := NewSession("s", config.PersonaStudent)
	s.Append("q", agent.Response{Content: "a"})
	if len(s.Turns()) != 1 {
		t.Fatal("turn not appended")
	}
	s.Clear()
	if len(s.Turns()) != 0 {
		t.Error("history survived Clear")
	}
}
