package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/swissenergydata/decipher/internal/llm"
)

// echoProvider returns the last user message, so generated content reflects
// exactly what the analysis stage produced. err makes every call fail.
type echoProvider struct {
	err error
}

func (p *echoProvider) Name() string { return "echo" }

func (p *echoProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			return &llm.CompletionResponse{Content: req.Messages[i].Content}, nil
		}
	}
	return &llm.CompletionResponse{}, nil
}

// scriptedSpecialist lets each pipeline stage be failed independently.
type scriptedSpecialist struct {
	identifyErr error
	analyzeErr  error
	generateErr error
	confidence  float64
	sources     []string
}

func (s *scriptedSpecialist) Name() string        { return "scripted" }
func (s *scriptedSpecialist) Description() string { return "test double" }

func (s *scriptedSpecialist) Identify(ctx context.Context, query string) (*Evidence, error) {
	if s.identifyErr != nil {
		return nil, s.identifyErr
	}
	return &Evidence{Sources: s.sources}, nil
}

func (s *scriptedSpecialist) Analyze(ctx context.Context, query string, ev *Evidence) error {
	if s.analyzeErr != nil {
		return s.analyzeErr
	}
	ev.Analysis = "analysis"
	return nil
}

func (s *scriptedSpecialist) Generate(ctx context.Context, query string, ev *Evidence) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return "generated answer", nil
}

func (s *scriptedSpecialist) Confidence(ev *Evidence) float64 { return s.confidence }

func TestRunSuccess(t *testing.T) {
	r := Run(context.Background(), &scriptedSpecialist{confidence: 0.6, sources: []string{"a.csv"}}, "q")

	if r.Content != "generated answer" {
		t.Errorf("content = %q", r.Content)
	}
	if r.Confidence != 0.6 {
		t.Errorf("confidence = %v", r.Confidence)
	}
	if len(r.DataSources) != 1 || r.DataSources[0] != "a.csv" {
		t.Errorf("sources = %v", r.DataSources)
	}
	if r.Agent != "scripted" {
		t.Errorf("agent = %q", r.Agent)
	}
}

func TestRunConvertsFailuresToZeroConfidence(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		s    *scriptedSpecialist
	}{
		{"identify", &scriptedSpecialist{identifyErr: boom}},
		{"analyze", &scriptedSpecialist{analyzeErr: boom}},
		{"generate", &scriptedSpecialist{generateErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Run(context.Background(), tt.s, "q")
			if r.Confidence != 0 {
				t.Errorf("confidence = %v, want 0", r.Confidence)
			}
			if r.Content == "" || !strings.Contains(r.Content, "could not") {
				t.Errorf("content does not explain the failure: %q", r.Content)
			}
			if r.Usable() {
				t.Error("failed response reported usable")
			}
		})
	}
}

func TestResponseDataSourcesSerializeAsArray(t *testing.T) {
	responses := []Response{
		Run(context.Background(), &scriptedSpecialist{generateErr: errors.New("boom")}, "q"),
		Run(context.Background(), &scriptedSpecialist{confidence: 0.5}, "q"), // nil sources
	}
	for i, r := range responses {
		raw, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(raw), `"data_sources":[]`) {
			t.Errorf("response %d serialized data_sources as %s", i, raw)
		}
	}
}

func TestRunClampsConfidence(t *testing.T) {
	r := Run(context.Background(), &scriptedSpecialist{confidence: 1.7, sources: []string{"a"}}, "q")
	if r.Confidence != maxConfidence {
		t.Errorf("confidence = %v, want clamp to %v", r.Confidence, maxConfidence)
	}

	r = Run(context.Background(), &scriptedSpecialist{confidence: -0.4}, "q")
	if r.Confidence != 0 {
		t.Errorf("confidence = %v, want clamp to 0", r.Confidence)
	}
}
