package pdfx

import "strings"

// CaptionKind distinguishes figure from table captions.
type CaptionKind int

const (
	CaptionFigure CaptionKind = iota
	CaptionTable
)

// Caption is a detected figure or table caption line with its position.
type Caption struct {
	Kind  CaptionKind
	Page  int
	Index int // 1-based per kind per page
	Text  string
}

// Caption prefixes used by the German- and English-language reports. The
// detection is a heuristic over line starts, not an exhaustive parse.
var (
	figurePrefixes = []string{"abbildung ", "abb.", "figure ", "fig."}
	tablePrefixes  = []string{"tabelle ", "tab.", "table "}
)

// DetectCaptions scans a page's lines for figure and table caption prefixes.
func DetectCaptions(p Page) []Caption {
	var captions []Caption
	figures, tables := 0, 0

	for _, line := range strings.Split(p.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)

		if hasAnyPrefix(low, figurePrefixes) {
			figures++
			captions = append(captions, Caption{Kind: CaptionFigure, Page: p.Number, Index: figures, Text: line})
		} else if hasAnyPrefix(low, tablePrefixes) {
			tables++
			captions = append(captions, Caption{Kind: CaptionTable, Page: p.Number, Index: tables, Text: line})
		}
	}
	return captions
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
