// Package orchestrator routes a query to specialist agents, fans their calls
// out concurrently, and synthesizes one persona-adapted answer from their
// responses. Three stages per query: route, fan-out/fan-in, synthesize. No
// state is retained across queries beyond the caller's conversation history.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/swissenergydata/decipher/internal/agent"
	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/llm"
)

// RoutingDecision is the router's selection of agents for one query. Created
// per query, discarded after use.
type RoutingDecision struct {
	Agents    []string `json:"agents"`
	Reasoning string   `json:"reasoning,omitempty"`
	FailOpen  bool     `json:"-"` // true when routing failed and all agents were invoked
}

// Recorder receives one audit entry per processed query. Implementations
// must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e AuditEntry)
}

// AuditEntry captures which agents a query was routed to and how it resolved.
type AuditEntry struct {
	Query          string
	Persona        string
	RoutedAgents   []string
	FailOpen       bool
	AgentConfs     map[string]float64
	FinalConf      float64
	DurationMillis int64
}

// Orchestrator drives the route, fan-out, synthesize pipeline.
type Orchestrator struct {
	provider llm.Provider
	model    string
	maxTok   int
	agents   []agent.Specialist // registration order, fixed at startup
	recorder Recorder
}

// New creates an Orchestrator over a fixed agent set. The agent order given
// here determines synthesis input ordering. recorder may be nil.
func New(provider llm.Provider, model string, maxTokens int, agents []agent.Specialist, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		model:    model,
		maxTok:   maxTokens,
		agents:   agents,
		recorder: recorder,
	}
}

// Agents returns the registered agent names in registration order.
func (o *Orchestrator) Agents() []string {
	names := make([]string, len(o.agents))
	for i, a := range o.agents {
		names[i] = a.Name()
	}
	return names
}

// Process answers one query for the given persona. history carries prior
// turns of the same session and may be nil. Process never returns an error;
// every failure mode degrades to a zero-confidence response.
func (o *Orchestrator) Process(ctx context.Context, query string, persona config.Persona, history []Turn) agent.Response {
	start := time.Now()

	decision := o.route(ctx, query, history)
	selected := o.selectAgents(decision)

	results := o.fanOut(ctx, query, selected)

	final := o.synthesize(ctx, query, persona, selected, results)

	if o.recorder != nil {
		confs := make(map[string]float64, len(results))
		for name, r := range results {
			confs[name] = r.Confidence
		}
		o.recorder.Record(ctx, AuditEntry{
			Query:          query,
			Persona:        string(persona),
			RoutedAgents:   decision.Agents,
			FailOpen:       decision.FailOpen,
			AgentConfs:     confs,
			FinalConf:      final.Confidence,
			DurationMillis: time.Since(start).Milliseconds(),
		})
	}
	return final
}

// route issues the classification call. Any failure, including unparseable
// output, fails open to all registered agents.
func (o *Orchestrator) route(ctx context.Context, query string, history []Turn) RoutingDecision {
	var sb strings.Builder
	sb.WriteString("Select the specialist agents needed to answer the user's question. Available agents:\n")
	for _, a := range o.agents {
		fmt.Fprintf(&sb, "- %s: %s\n", a.Name(), a.Description())
	}
	sb.WriteString("\nRespond with JSON: {\"agents\": [\"name\", ...], \"reasoning\": \"...\"}. " +
		"Select every agent whose domain the question touches.")

	messages := []llm.Message{{Role: llm.RoleSystem, Content: sb.String()}}
	for _, t := range recentTurns(history, 3) {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: t.Query},
			llm.Message{Role: llm.RoleAssistant, Content: truncate(t.Response.Content, 400)},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: 300,
		JSONMode:  true,
	})
	if err != nil {
		log.Printf("orchestrator: routing call failed, invoking all agents: %v", err)
		return o.failOpen()
	}

	var decision RoutingDecision
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &decision); err != nil || len(decision.Agents) == 0 {
		log.Printf("orchestrator: unparseable routing decision, invoking all agents")
		return o.failOpen()
	}
	return decision
}

func (o *Orchestrator) failOpen() RoutingDecision {
	return RoutingDecision{Agents: o.Agents(), FailOpen: true}
}

// selectAgents resolves the decision's names against the registry, keeping
// registration order. Unknown names are dropped; an empty resolution falls
// back to all agents.
func (o *Orchestrator) selectAgents(decision RoutingDecision) []agent.Specialist {
	named := make(map[string]bool, len(decision.Agents))
	for _, n := range decision.Agents {
		named[strings.TrimSpace(strings.ToLower(n))] = true
	}

	var selected []agent.Specialist
	for _, a := range o.agents {
		if named[a.Name()] {
			selected = append(selected, a)
		}
	}
	if len(selected) == 0 {
		return o.agents
	}
	return selected
}

// fanOut invokes every selected agent concurrently and waits for all of them.
// One agent's failure never cancels the others; agent.Run converts failures
// into zero-confidence responses. Results are keyed by agent name so that
// synthesis input order is registration order regardless of completion order.
func (o *Orchestrator) fanOut(ctx context.Context, query string, selected []agent.Specialist) map[string]agent.Response {
	results := make(map[string]agent.Response, len(selected))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, a := range selected {
		wg.Add(1)
		go func(a agent.Specialist) {
			defer wg.Done()
			r := agent.Run(ctx, a, query)
			mu.Lock()
			results[a.Name()] = r
			mu.Unlock()
		}(a)
	}
	wg.Wait()
	return results
}

// synthesize combines the agent responses into one answer. With zero usable
// responses the synthesis call is skipped and a zero-confidence response is
// returned directly. The aggregate confidence is a weighted average of the
// usable confidences and never exceeds the maximum individual confidence.
func (o *Orchestrator) synthesize(ctx context.Context, query string, persona config.Persona, selected []agent.Specialist, results map[string]agent.Response) agent.Response {
	var usable []agent.Response
	for _, a := range selected {
		if r, ok := results[a.Name()]; ok && r.Usable() {
			usable = append(usable, r)
		}
	}

	if len(usable) == 0 {
		return agent.Response{
			Content: "I could not find anything in the energy scenario corpus to answer this question. " +
				"Try rephrasing it, or ask about the datasets and reports the corpus covers.",
			Confidence:  0,
			DataSources: []string{},
			Timestamp:   time.Now(),
		}
	}

	confidence := aggregateConfidence(usable)
	sources := mergeSources(usable)
	suggestions := mergeSuggestions(usable)

	var sb strings.Builder
	for _, r := range usable {
		fmt.Fprintf(&sb, "## %s (confidence %.2f)\n%s\n\n", r.Agent, r.Confidence, r.Content)
	}

	system := "You combine specialist analyses of Swiss energy scenario data into one coherent answer. " +
		"Merge the contributions without repeating them, keep every concrete number and its source, " +
		"and do not introduce facts that no contribution contains. " + personaInstruction(persona)
	user := fmt.Sprintf("Question: %s\n\nSpecialist contributions:\n%s", query, sb.String())

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model:       o.model,
		Messages:    []llm.Message{{Role: llm.RoleSystem, Content: system}, {Role: llm.RoleUser, Content: user}},
		MaxTokens:   o.maxTok,
		Temperature: 0.3,
	})
	if err != nil {
		// Degrade to the strongest individual contribution rather than
		// discarding the fan-out work.
		log.Printf("orchestrator: synthesis call failed: %v", err)
		best := usable[0]
		for _, r := range usable[1:] {
			if r.Confidence > best.Confidence {
				best = r
			}
		}
		return agent.Response{
			Content:     best.Content,
			Confidence:  confidence,
			DataSources: sources,
			Suggestions: suggestions,
			Timestamp:   time.Now(),
		}
	}

	return agent.Response{
		Content:     resp.Content,
		Confidence:  confidence,
		DataSources: sources,
		Suggestions: suggestions,
		Timestamp:   time.Now(),
	}
}

// aggregateConfidence is a confidence-weighted average, which by construction
// cannot exceed the maximum individual confidence.
func aggregateConfidence(usable []agent.Response) float64 {
	var num, den float64
	for _, r := range usable {
		num += r.Confidence * r.Confidence
		den += r.Confidence
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// mergeSources deduplicates data sources preserving first-seen order.
func mergeSources(usable []agent.Response) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range usable {
		for _, s := range r.DataSources {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func mergeSuggestions(usable []agent.Response) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range usable {
		for _, s := range r.Suggestions {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// personaInstruction returns the tone and emphasis instruction for the
// synthesis call. Persona changes presentation, never the underlying data.
func personaInstruction(p config.Persona) string {
	switch p {
	case config.PersonaJournalist:
		return "Write for a journalist: lead with the most newsworthy finding, quantify claims precisely, and name sources so they can be cited."
	case config.PersonaStudent:
		return "Write for a student: explain terms and methods as you use them, and build the answer up step by step."
	case config.PersonaPolicymaker:
		return "Write for a policymaker: lead with implications for decisions, state trade-offs explicitly, and keep technical detail brief."
	default:
		return "Write for an interested citizen: plain language, everyday comparisons for large numbers, no unexplained jargon."
	}
}

// extractJSON trims everything outside the outermost JSON object. Providers
// without a native JSON mode tend to wrap the object in prose or fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
