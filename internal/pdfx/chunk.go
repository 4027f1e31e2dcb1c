package pdfx

import (
	"strings"
	"unicode/utf8"
)

// Chunk is a size-bounded slice of one page's text.
type Chunk struct {
	Page  int
	Index int // 1-based within the page
	Text  string
}

// ChunkPage segments a page's text into chunks of at most maxChars, carrying
// overlapChars of trailing context into the next chunk. Paragraph breaks are
// preferred split points; a single oversized paragraph is split hard.
func ChunkPage(p Page, maxChars, overlapChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = 1400
	}
	if overlapChars < 0 || overlapChars >= maxChars {
		overlapChars = 0
	}

	paras := splitParagraphs(p.Text)
	if len(paras) == 0 {
		return nil
	}

	var chunks []Chunk
	var current strings.Builder
	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			chunks = append(chunks, Chunk{Page: p.Number, Index: len(chunks) + 1, Text: text})
		}
		current.Reset()
	}

	for _, para := range paras {
		for len(para) > maxChars {
			flush()
			cut := runeCut(para, maxChars)
			current.WriteString(para[:cut])
			flush()
			start := cut - overlapChars
			if start < 1 {
				start = 1
			}
			for start < len(para) && !utf8.RuneStart(para[start]) {
				start++
			}
			para = para[start:]
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > maxChars {
			tail := overlapTail(current.String(), overlapChars)
			flush()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitParagraphs breaks text on blank lines, falling back to single lines
// when extraction produced no blank-line structure.
func splitParagraphs(text string) []string {
	var paras []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paras = append(paras, block)
		}
	}
	if len(paras) <= 1 && strings.Count(text, "\n") > 3 {
		paras = paras[:0]
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				paras = append(paras, line)
			}
		}
	}
	return paras
}

// overlapTail returns the last n bytes of s, trimmed to a word boundary.
// The cut never lands inside a multi-byte rune.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) == 0 {
		return ""
	}
	if len(s) > n {
		s = s[len(s)-n:]
		for len(s) > 0 && !utf8.RuneStart(s[0]) {
			s = s[1:]
		}
	}
	if i := strings.IndexAny(s, " \n\t"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// runeCut returns the largest i <= n such that s[:i] does not end inside a
// rune. Falls back to n when n is smaller than the first rune.
func runeCut(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return n
	}
	return cut
}
