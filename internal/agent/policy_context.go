package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/swissenergydata/decipher/internal/llm"
	"github.com/swissenergydata/decipher/internal/retrieval"
)

// policyTopic is one entry of the static Swiss policy knowledge base.
type policyTopic struct {
	Name     string
	Keywords []string
	Summary  string
}

// policyKnowledge covers the legislative and strategic frame the scenario
// study operates in. Static background, always combined with corpus-backed
// passages before it contributes to an answer.
var policyKnowledge = []policyTopic{
	{
		Name:     "Energy Strategy 2050",
		Keywords: []string{"energy strategy", "energiestrategie", "2050", "strategy"},
		Summary: "Adopted by referendum in May 2017. Phases out new nuclear plants, expands renewables and efficiency, " +
			"and restructures the grid. The Energy Perspectives 2050+ scenarios quantify its long-term pathways.",
	},
	{
		Name:     "CO2 Act",
		Keywords: []string{"co2", "carbon", "emission", "levy", "klimaschutz"},
		Summary: "Switzerland's main climate instrument: a CO2 levy on heating and process fuels, building standards, " +
			"and vehicle fleet targets. The revised Klimaschutzgesetz (2023) anchors the net-zero 2050 target in law.",
	},
	{
		Name:     "Net-zero target",
		Keywords: []string{"net-zero", "net zero", "netto-null", "climate neutral", "neutrality"},
		Summary: "The Federal Council committed in 2019 to net-zero greenhouse gas emissions by 2050, in line with the " +
			"Paris Agreement. The ZERO scenario family models pathways that reach this target.",
	},
	{
		Name:     "Nuclear phase-out",
		Keywords: []string{"nuclear", "kernkraft", "kkw", "atom", "phase-out"},
		Summary: "No new nuclear plants may be licensed; existing plants run as long as they are safe. The KKW50 and " +
			"KKW60 variants bracket assumed operating lifetimes of 50 and 60 years.",
	},
	{
		Name:     "Electricity supply security",
		Keywords: []string{"supply", "security", "import", "winter", "stromversorgung"},
		Summary: "Winter electricity imports and the buildout of domestic renewables are the central supply-security " +
			"questions; the Mantelerlass (2023) sets expansion targets for solar and hydro.",
	},
}

// PolicyContext places query answers in the Swiss energy policy frame. It
// pairs a static knowledge base with passages retrieved from the report
// corpus; without corpus backing it does not claim confidence.
type PolicyContext struct {
	retriever *retrieval.Retriever
	provider  llm.Provider
	gen       genConfig
}

// NewPolicyContext wires the policy context agent.
func NewPolicyContext(r *retrieval.Retriever, p llm.Provider, model string, temperature float64, maxTokens int) *PolicyContext {
	return &PolicyContext{
		retriever: r,
		provider:  p,
		gen:       genConfig{Model: model, Temperature: temperature, MaxTokens: maxTokens},
	}
}

func (a *PolicyContext) Name() string { return "policy_context" }

func (a *PolicyContext) Description() string {
	return "Explains the Swiss policy and legislative context: Energy Strategy 2050, the CO2 Act, the net-zero target, and the nuclear phase-out."
}

// Identify retrieves report passages to back the static policy knowledge.
func (a *PolicyContext) Identify(ctx context.Context, query string) (*Evidence, error) {
	ev := &Evidence{}

	hits := a.retriever.SearchReports(ctx, query, 4)
	seen := make(map[string]bool)
	var sb strings.Builder
	for _, h := range hits {
		if doc := h.Record.Metadata.Doc; doc != "" && !seen[doc] {
			seen[doc] = true
			ev.Sources = append(ev.Sources, doc)
		}
		fmt.Fprintf(&sb, "[%s p.%d] %s\n\n",
			h.Record.Metadata.Doc, h.Record.Metadata.Page, truncate(h.Record.Text, maxExcerptPreview))
	}
	ev.Analysis = sb.String()
	return ev, nil
}

// Analyze matches the query against the knowledge base and appends matching
// topics to the retrieved passages.
func (a *PolicyContext) Analyze(ctx context.Context, query string, ev *Evidence) error {
	low := strings.ToLower(query)
	var sb strings.Builder
	sb.WriteString(ev.Analysis)

	for _, topic := range policyKnowledge {
		for _, kw := range topic.Keywords {
			if strings.Contains(low, kw) {
				fmt.Fprintf(&sb, "Background, %s: %s\n\n", topic.Name, topic.Summary)
				ev.ExactHits++
				break
			}
		}
	}

	if sb.Len() == 0 {
		ev.Analysis = "No policy context found for this query."
		return nil
	}
	ev.Analysis = sb.String()
	ev.Reasoning = fmt.Sprintf("Matched %d policy topic(s) and %d report(s).", ev.ExactHits, len(ev.Sources))
	ev.Suggestions = append(ev.Suggestions, "How does current legislation support this pathway?")
	return nil
}

// Generate narrates the policy frame in one completion call.
func (a *PolicyContext) Generate(ctx context.Context, query string, ev *Evidence) (string, error) {
	system := "You are a policy analyst for Swiss energy and climate policy. " +
		"Answer using the provided background and report excerpts, distinguishing enacted law from scenario assumptions."
	user := fmt.Sprintf("Question: %s\n\nContext:\n%s", query, ev.Analysis)
	return complete(ctx, a.provider, a.gen, system, user)
}

// Confidence requires corpus-backed sources; static knowledge alone scores
// zero so an empty corpus cannot produce a confident answer.
func (a *PolicyContext) Confidence(ev *Evidence) float64 {
	if len(ev.Sources) == 0 {
		return 0
	}
	c := 0.3 + 0.1*float64(len(ev.Sources)) + 0.05*float64(ev.ExactHits)
	return clampConfidence(c)
}
