package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/swissenergydata/decipher/internal/llm"
	"github.com/swissenergydata/decipher/internal/pdfx"
	"github.com/swissenergydata/decipher/internal/retrieval"
)

const (
	maxReportHits     = 5
	maxFallbackDocs   = 2
	maxFallbackParas  = 6
	maxExcerptPreview = 600
)

// DocumentIntelligence answers queries from the PDF report corpus: text
// chunks, figure captions, and table extracts.
type DocumentIntelligence struct {
	retriever  *retrieval.Retriever
	reportsDir string
	provider   llm.Provider
	gen        genConfig
}

// NewDocumentIntelligence wires the report intelligence agent.
func NewDocumentIntelligence(r *retrieval.Retriever, reportsDir string, p llm.Provider, model string, temperature float64, maxTokens int) *DocumentIntelligence {
	return &DocumentIntelligence{
		retriever:  r,
		reportsDir: reportsDir,
		provider:   p,
		gen:        genConfig{Model: model, Temperature: temperature, MaxTokens: maxTokens},
	}
}

func (a *DocumentIntelligence) Name() string { return "document_intelligence" }

func (a *DocumentIntelligence) Description() string {
	return "Answers questions from the published reports: methodology, figures, tables, and qualitative findings in the PDF corpus."
}

// Identify searches the report collections, falling back to a filename
// keyword match over the reports directory.
func (a *DocumentIntelligence) Identify(ctx context.Context, query string) (*Evidence, error) {
	ev := &Evidence{}

	hits := a.retriever.SearchReports(ctx, query, maxReportHits)
	if len(hits) > 0 {
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
		ev.Reasoning = fmt.Sprintf("Found %d passage(s) across %d report(s) by semantic search.", len(hits), len(ev.Sources))
		return ev, nil
	}

	// Retrieval came back empty; match report filenames by keyword and read
	// the documents directly.
	names, err := pdfx.ListReports(a.reportsDir)
	if err != nil {
		return ev, nil
	}
	words := keywordSet(query)
	for _, name := range names {
		low := strings.ToLower(name)
		for w := range words {
			if strings.Contains(low, w) {
				ev.Sources = append(ev.Sources, name)
				break
			}
		}
		if len(ev.Sources) == maxFallbackDocs {
			break
		}
	}
	if len(ev.Sources) > 0 {
		ev.Reasoning = "Matched reports by filename after semantic search returned no results."
	}
	return ev, nil
}

// Analyze extracts matching paragraphs for fallback-matched documents. When
// retrieval already supplied excerpts, nothing more is needed.
func (a *DocumentIntelligence) Analyze(ctx context.Context, query string, ev *Evidence) error {
	if ev.Analysis != "" {
		ev.Suggestions = append(ev.Suggestions, "Which report section covers this in more depth?")
		return nil
	}
	if len(ev.Sources) == 0 {
		ev.Analysis = "No matching passages were found in the report corpus."
		return nil
	}

	var terms []string
	for w := range keywordSet(query) {
		terms = append(terms, w)
	}

	var sb strings.Builder
	for _, name := range ev.Sources {
		doc, err := pdfx.Extract(filepath.Join(a.reportsDir, name))
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%s (%s):\n", name, pdfx.Categorize(name))
		for _, para := range pdfx.MatchingParagraphs(doc, terms, maxFallbackParas) {
			fmt.Fprintf(&sb, "%s\n\n", truncate(para, maxExcerptPreview))
		}
	}
	ev.Analysis = sb.String()
	return nil
}

// Generate narrates the extracted passages in one completion call.
func (a *DocumentIntelligence) Generate(ctx context.Context, query string, ev *Evidence) (string, error) {
	system := "You are a document analyst for the Swiss Energy Perspectives 2050+ report corpus. " +
		"Answer using only the provided excerpts, naming the report and page each point comes from. " +
		"If the excerpts do not cover the question, say so."
	user := fmt.Sprintf("Question: %s\n\nExcerpts:\n%s", query, ev.Analysis)
	return complete(ctx, a.provider, a.gen, system, user)
}

// Confidence scores by document coverage.
func (a *DocumentIntelligence) Confidence(ev *Evidence) float64 {
	if len(ev.Sources) == 0 {
		return 0
	}
	c := 0.3 + 0.15*float64(len(ev.Sources))
	return clampConfidence(c)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
