package pdfx

import "strings"

// Categorize maps a report filename to its document category, following the
// naming conventions of the Energy Perspectives publications.
func Categorize(filename string) string {
	low := strings.ToLower(filename)
	switch {
	case strings.Contains(low, "kurzbericht") || strings.Contains(low, "summary"):
		return "Executive Summary"
	case strings.Contains(low, "technischer") || strings.Contains(low, "technical"):
		return "Technical Report"
	case strings.Contains(low, "faktenblatt") || strings.Contains(low, "fact"):
		return "Fact Sheet"
	case strings.Contains(low, "exkurs"):
		return "Specialized Study"
	case strings.Contains(low, "stellungnahmen"):
		return "Stakeholder Input"
	default:
		return "General Report"
	}
}

// DetectLanguage guesses the document language from filename markers.
// Swiss federal reports default to German.
func DetectLanguage(filename string) string {
	low := strings.ToLower(filename)
	switch {
	case strings.Contains(filename, "_FR") || strings.Contains(low, "french"):
		return "French"
	case strings.Contains(filename, "_EN") || strings.Contains(low, "english"):
		return "English"
	default:
		return "German"
	}
}

// MatchingParagraphs returns paragraphs of the document containing any of
// the given terms, capped at limit. Matching is case-insensitive substring
// search; this is the deterministic extraction step, no model involved.
func MatchingParagraphs(doc *Document, terms []string, limit int) []string {
	if len(terms) == 0 || limit <= 0 {
		return nil
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	var out []string
	for _, page := range doc.Pages {
		for _, para := range splitParagraphs(page.Text) {
			lp := strings.ToLower(para)
			for _, t := range lowered {
				if strings.Contains(lp, t) {
					out = append(out, para)
					break
				}
			}
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
