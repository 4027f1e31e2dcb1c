package agent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/swissenergydata/decipher/internal/corpus"
	"github.com/swissenergydata/decipher/internal/llm"
	"github.com/swissenergydata/decipher/internal/retrieval"
)

const (
	maxDatasetMatches = 3
	maxListedRows     = 12
)

// DataInterpreter answers quantitative queries against the CSV corpus. It
// matches datasets through the card collection, loads filtered rows through
// DuckDB, and narrates descriptive statistics.
type DataInterpreter struct {
	retriever *retrieval.Retriever
	catalog   *corpus.Catalog
	provider  llm.Provider
	gen       genConfig
}

// NewDataInterpreter wires the data interpreter agent.
func NewDataInterpreter(r *retrieval.Retriever, c *corpus.Catalog, p llm.Provider, model string, temperature float64, maxTokens int) *DataInterpreter {
	return &DataInterpreter{
		retriever: r,
		catalog:   c,
		provider:  p,
		gen:       genConfig{Model: model, Temperature: temperature, MaxTokens: maxTokens},
	}
}

func (a *DataInterpreter) Name() string { return "data_interpreter" }

func (a *DataInterpreter) Description() string {
	return "Answers quantitative questions from the tabular energy datasets: values, trends, and statistics for variables by scenario, variant, and year."
}

// Identify matches datasets via the card collection, falling back to keyword
// matching over filenames and variable names when retrieval yields nothing.
func (a *DataInterpreter) Identify(ctx context.Context, query string) (*Evidence, error) {
	ev := &Evidence{}

	hits := a.retriever.SearchDatasets(ctx, query, maxDatasetMatches)
	for _, h := range hits {
		if h.Record.Metadata.DatasetID != "" {
			ev.Sources = append(ev.Sources, h.Record.Metadata.DatasetID)
		}
	}
	if len(ev.Sources) == 0 {
		for _, card := range a.catalog.KeywordMatch(query, maxDatasetMatches) {
			ev.Sources = append(ev.Sources, card.ID)
		}
		if len(ev.Sources) > 0 {
			ev.Reasoning = "Matched datasets by keyword after semantic search returned no results."
		}
	} else {
		ev.Reasoning = fmt.Sprintf("Matched %d dataset(s) by semantic search over dataset cards.", len(ev.Sources))
	}
	return ev, nil
}

// Analyze loads filtered rows from each matched dataset and reduces them to
// descriptive statistics. No model call happens here.
func (a *DataInterpreter) Analyze(ctx context.Context, query string, ev *Evidence) error {
	if len(ev.Sources) == 0 {
		ev.Analysis = "No matching datasets were found in the corpus."
		return nil
	}

	filter := filterFromQuery(query)
	var sb strings.Builder

	for _, id := range ev.Sources {
		card, ok := a.catalog.Card(id)
		if !ok {
			continue
		}

		f := filter
		if v := bestVariable(card.Variables, query); v != "" {
			f.Variable = v
			ev.ExactHits++
		}

		rows, err := a.catalog.Load(ctx, id, f)
		if err != nil {
			// Malformed files are skipped, same policy as the index build.
			continue
		}
		if len(rows) == 0 && f.Variable != "" {
			// Retry without the variable constraint; the name match may have
			// been too narrow.
			f.Variable = ""
			rows, err = a.catalog.Load(ctx, id, f)
			if err != nil {
				continue
			}
		}
		if len(rows) == 0 {
			continue
		}

		stats := corpus.Stats(rows)
		fmt.Fprintf(&sb, "Dataset %s (%s):\n", card.ID, card.Category)
		writeStats(&sb, stats)
		if len(rows) <= maxListedRows {
			for _, r := range rows {
				fmt.Fprintf(&sb, "  %s\n", formatRow(r))
			}
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		ev.Analysis = "Matched datasets contained no rows for the requested filter."
		return nil
	}
	ev.Analysis = sb.String()
	ev.Suggestions = append(ev.Suggestions,
		"Compare this variable across scenarios",
		"Show the development of this variable over time",
	)
	return nil
}

// Generate narrates the reduced statistics in one completion call.
func (a *DataInterpreter) Generate(ctx context.Context, query string, ev *Evidence) (string, error) {
	system := "You are a data analyst for the Swiss Energy Perspectives 2050+ datasets. " +
		"Answer the user's question using only the provided data summary. " +
		"Cite concrete numbers with their units and years. If the data does not cover the question, say so."
	user := fmt.Sprintf("Question: %s\n\nData summary:\n%s", query, ev.Analysis)
	return complete(ctx, a.provider, a.gen, system, user)
}

// Confidence scores evidence by resource and keyword hits. Zero matched
// datasets means zero confidence.
func (a *DataInterpreter) Confidence(ev *Evidence) float64 {
	if len(ev.Sources) == 0 {
		return 0
	}
	c := 0.3 + 0.15*float64(len(ev.Sources)) + 0.1*float64(ev.ExactHits)
	return clampConfidence(c)
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// filterFromQuery extracts scenario, variant, and year constraints mentioned
// in the query text.
func filterFromQuery(query string) corpus.Filter {
	var f corpus.Filter

	if s := explicitScenario(query); s != "" {
		f.Scenario = s
	}
	f.Variant = corpus.DetectVariant(query)

	years := yearPattern.FindAllString(query, -1)
	switch len(years) {
	case 0:
	case 1:
		y, _ := strconv.Atoi(years[0])
		f.YearFrom, f.YearTo = y, y
	default:
		ys := make([]int, 0, len(years))
		for _, s := range years {
			y, _ := strconv.Atoi(s)
			ys = append(ys, y)
		}
		sort.Ints(ys)
		f.YearFrom, f.YearTo = ys[0], ys[len(ys)-1]
	}
	return f
}

// explicitScenario returns a scenario name only when the query singles one
// out. DetectScenarios defaults to all scenarios on no mention, which must
// not become a filter.
func explicitScenario(query string) string {
	found := corpus.DetectScenarios(query)
	if len(found) == 1 {
		return found[0]
	}
	return ""
}

// bestVariable picks the variable name sharing the most query words, or ""
// when nothing overlaps.
func bestVariable(variables []string, query string) string {
	words := keywordSet(query)
	best, bestScore := "", 0
	for _, v := range variables {
		lv := strings.ToLower(v)
		score := 0
		for w := range words {
			if strings.Contains(lv, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = v, score
		}
	}
	return best
}

func keywordSet(query string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) >= 3 {
			set[f] = struct{}{}
		}
	}
	return set
}

func writeStats(sb *strings.Builder, s corpus.SeriesStats) {
	fmt.Fprintf(sb, "  %d rows", s.Count)
	if s.YearMin > 0 {
		fmt.Fprintf(sb, ", years %d-%d", s.YearMin, s.YearMax)
	}
	fmt.Fprintf(sb, ", min %s, max %s, mean %s", num(s.MinValue), num(s.MaxValue), num(s.MeanValue))
	if s.Unit != "" {
		fmt.Fprintf(sb, " %s", s.Unit)
	}
	if s.YearMin > 0 && s.YearMax > s.YearMin {
		fmt.Fprintf(sb, "; change %s (%d to %d)", num(s.Delta), s.YearMin, s.YearMax)
		if s.HasGrowthRate {
			fmt.Fprintf(sb, ", %.1f%% per year", s.GrowthRatePct)
		}
	}
	sb.WriteString("\n")
}

func formatRow(r corpus.Row) string {
	var parts []string
	if r.Variable != "" {
		parts = append(parts, r.Variable)
	}
	if r.Scenario != "" {
		parts = append(parts, "scenario "+r.Scenario)
	}
	if r.Variant != "" {
		parts = append(parts, "variant "+r.Variant)
	}
	if r.Year > 0 {
		parts = append(parts, fmt.Sprintf("year %d", r.Year))
	}
	v := num(r.Value)
	if r.Unit != "" {
		v += " " + r.Unit
	}
	parts = append(parts, "value "+v)
	return strings.Join(parts, ", ")
}

// num trims trailing zeros so 25.300000 prints as 25.3.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
