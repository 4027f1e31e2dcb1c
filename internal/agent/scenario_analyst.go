package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/swissenergydata/decipher/internal/corpus"
	"github.com/swissenergydata/decipher/internal/llm"
	"github.com/swissenergydata/decipher/internal/retrieval"
)

// ScenarioAnalyst compares modelled pathways. It detects which scenarios a
// query refers to, loads the same variable under each, and narrates the
// differences together with the static scenario metadata. Agents are shared
// across in-flight queries, so all per-query state lives in the Evidence.
type ScenarioAnalyst struct {
	retriever *retrieval.Retriever
	catalog   *corpus.Catalog
	provider  llm.Provider
	gen       genConfig
}

// NewScenarioAnalyst wires the scenario comparison agent.
func NewScenarioAnalyst(r *retrieval.Retriever, c *corpus.Catalog, p llm.Provider, model string, temperature float64, maxTokens int) *ScenarioAnalyst {
	return &ScenarioAnalyst{
		retriever: r,
		catalog:   c,
		provider:  p,
		gen:       genConfig{Model: model, Temperature: temperature, MaxTokens: maxTokens},
	}
}

func (a *ScenarioAnalyst) Name() string { return "scenario_analyst" }

func (a *ScenarioAnalyst) Description() string {
	return "Compares energy pathways: ZERO-Basis versus WWB and their variants, explaining how assumptions drive differences in the data."
}

// Identify detects the scenarios under comparison and the datasets that carry
// them.
func (a *ScenarioAnalyst) Identify(ctx context.Context, query string) (*Evidence, error) {
	scenarios := corpus.DetectScenarios(query)
	ev := &Evidence{}

	hits := a.retriever.SearchDatasets(ctx, query, maxDatasetMatches)
	for _, h := range hits {
		if id := h.Record.Metadata.DatasetID; id != "" && a.coversScenarios(id, scenarios) {
			ev.Sources = append(ev.Sources, id)
		}
	}
	if len(ev.Sources) == 0 {
		for _, card := range a.catalog.KeywordMatch(query, maxDatasetMatches) {
			if a.coversScenarios(card.ID, scenarios) {
				ev.Sources = append(ev.Sources, card.ID)
			}
		}
	}
	if len(ev.Sources) == 0 {
		// No keyword signal either; compare over any dataset that carries a
		// scenario column.
		for _, card := range a.catalog.Cards() {
			if len(card.Scenarios) > 0 {
				ev.Sources = append(ev.Sources, card.ID)
				if len(ev.Sources) == maxDatasetMatches {
					break
				}
			}
		}
	}

	ev.Reasoning = fmt.Sprintf("Comparing scenarios %s across %d dataset(s).",
		strings.Join(scenarios, ", "), len(ev.Sources))
	return ev, nil
}

// coversScenarios reports whether the dataset carries at least one of the
// scenarios under comparison.
func (a *ScenarioAnalyst) coversScenarios(id string, scenarios []string) bool {
	card, ok := a.catalog.Card(id)
	if !ok {
		return false
	}
	for _, have := range card.Scenarios {
		for _, want := range scenarios {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Analyze loads each scenario's slice of the matched datasets and reduces
// them side by side.
func (a *ScenarioAnalyst) Analyze(ctx context.Context, query string, ev *Evidence) error {
	scenarios := corpus.DetectScenarios(query)
	variant := corpus.DetectVariant(query)
	var sb strings.Builder

	for _, name := range scenarios {
		if info, ok := corpus.ScenarioByName(name); ok {
			fmt.Fprintf(&sb, "Scenario %s: %s\n", info.Name, info.Description)
			for _, f := range info.KeyFeatures {
				fmt.Fprintf(&sb, "  - %s\n", f)
			}
		}
	}
	if variant != "" {
		if desc, ok := corpus.KnownVariants[variant]; ok {
			fmt.Fprintf(&sb, "Variant %s: %s\n", variant, desc)
		}
	}
	sb.WriteString("\n")

	for _, id := range ev.Sources {
		card, ok := a.catalog.Card(id)
		if !ok {
			continue
		}
		variable := bestVariable(card.Variables, query)
		if variable != "" {
			ev.ExactHits++
		}

		fmt.Fprintf(&sb, "Dataset %s:\n", card.ID)
		for _, scenario := range scenarios {
			rows, err := a.catalog.Load(ctx, id, corpus.Filter{
				Variable: variable,
				Scenario: scenario,
				Variant:  variant,
			})
			if err != nil || len(rows) == 0 {
				continue
			}
			fmt.Fprintf(&sb, " %s:\n", scenario)
			writeStats(&sb, corpus.Stats(rows))
		}
		sb.WriteString("\n")
	}

	ev.Analysis = sb.String()
	ev.Suggestions = append(ev.Suggestions,
		"What assumptions explain the difference between these scenarios?",
		"How do the nuclear lifetime variants change this picture?",
	)
	return nil
}

// Generate narrates the scenario comparison in one completion call.
func (a *ScenarioAnalyst) Generate(ctx context.Context, query string, ev *Evidence) (string, error) {
	system := "You are a scenario analyst for the Swiss Energy Perspectives 2050+ study. " +
		"Compare the pathways using only the provided summary, attributing differences to their stated assumptions. " +
		"Cite concrete numbers with units where the summary provides them."
	user := fmt.Sprintf("Question: %s\n\nComparison summary:\n%s", query, ev.Analysis)
	return complete(ctx, a.provider, a.gen, system, user)
}

// Confidence scores by dataset coverage of the scenarios under comparison.
func (a *ScenarioAnalyst) Confidence(ev *Evidence) float64 {
	if len(ev.Sources) == 0 {
		return 0
	}
	c := 0.35 + 0.1*float64(len(ev.Sources)) + 0.1*float64(ev.ExactHits)
	return clampConfidence(c)
}
