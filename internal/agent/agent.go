// Package agent implements the specialist agents: each one answers a narrow
// class of query over one data domain. An agent's pipeline is fixed: identify
// relevant resources, reduce them locally, then issue exactly one model call
// to narrate the reduction. Confidence is a bounded heuristic over match
// signals, never a calibrated probability.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/swissenergydata/decipher/internal/llm"
)

// maxConfidence caps every heuristic estimate. Agents never assert certainty.
const maxConfidence = 0.9

// Response is the common output shape produced by every agent and by the
// synthesis step. Immutable once produced.
type Response struct {
	Agent       string    `json:"agent,omitempty"`
	Content     string    `json:"content"`
	Confidence  float64   `json:"confidence"`
	DataSources []string  `json:"data_sources"`
	Reasoning   string    `json:"reasoning,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Usable reports whether the response carries content worth synthesizing.
func (r Response) Usable() bool {
	return r.Confidence > 0 && r.Content != ""
}

// Evidence is what an agent's identification and analysis stages accumulate
// before the single generation call. Sources must name resources that exist
// in the current corpus; an agent with no corpus-backed evidence scores zero.
type Evidence struct {
	Sources     []string // dataset IDs or report document IDs
	Analysis    string   // reduced findings, fed verbatim to the model
	ExactHits   int      // exact keyword or variable-name matches
	Reasoning   string
	Suggestions []string
}

// Specialist is the four-step capability contract every agent variant
// implements. Identify finds resources (retrieval first, keyword fallback),
// Analyze reduces them without any model call, Generate issues the one
// completion, and Confidence scores the evidence deterministically.
type Specialist interface {
	Name() string
	Description() string
	Identify(ctx context.Context, query string) (*Evidence, error)
	Analyze(ctx context.Context, query string, ev *Evidence) error
	Generate(ctx context.Context, query string, ev *Evidence) (string, error)
	Confidence(ev *Evidence) float64
}

// Run drives a specialist through its pipeline. Any failure, including a
// provider error during generation, is converted into a zero-confidence
// response; errors never propagate to the orchestrator.
func Run(ctx context.Context, s Specialist, query string) Response {
	ev, err := s.Identify(ctx, query)
	if err != nil {
		return failed(s, fmt.Sprintf("could not identify relevant resources: %v", err))
	}
	if ev == nil {
		ev = &Evidence{}
	}

	if err := s.Analyze(ctx, query, ev); err != nil {
		return failed(s, fmt.Sprintf("could not analyze the matched resources: %v", err))
	}

	content, err := s.Generate(ctx, query, ev)
	if err != nil {
		return failed(s, fmt.Sprintf("the language model call failed: %v", err))
	}

	sources := ev.Sources
	if sources == nil {
		sources = []string{}
	}
	return Response{
		Agent:       s.Name(),
		Content:     content,
		Confidence:  clampConfidence(s.Confidence(ev)),
		DataSources: sources,
		Reasoning:   ev.Reasoning,
		Suggestions: ev.Suggestions,
		Timestamp:   time.Now(),
	}
}

// failed builds the zero-confidence response. DataSources is an empty slice,
// not nil, so every response serializes data_sources as a JSON array.
func failed(s Specialist, detail string) Response {
	return Response{
		Agent:       s.Name(),
		Content:     fmt.Sprintf("The %s agent could not answer this query: %s", s.Name(), detail),
		Confidence:  0,
		DataSources: []string{},
		Timestamp:   time.Now(),
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

// genConfig carries the model parameters shared by all agents' generation
// calls.
type genConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// complete issues the single generation call of an agent pipeline.
func complete(ctx context.Context, p llm.Provider, g genConfig, system, user string) (string, error) {
	resp, err := p.Complete(ctx, llm.CompletionRequest{
		Model: g.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
