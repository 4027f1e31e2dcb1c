package pdfx

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkPageEmpty(t *testing.T) {
	if got := ChunkPage(Page{Number: 1, Text: "   \n\n  "}, 100, 20); got != nil {
		t.Errorf("got %v chunks for blank page", got)
	}
}

func TestChunkPageSingleParagraph(t *testing.T) {
	chunks := ChunkPage(Page{Number: 3, Text: "A short paragraph."}, 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Page != 3 || chunks[0].Index != 1 {
		t.Errorf("chunk position = p%d c%d", chunks[0].Page, chunks[0].Index)
	}
	if chunks[0].Text != "A short paragraph." {
		t.Errorf("text = %q", chunks[0].Text)
	}
}

func TestChunkPageSplitsAtParagraphs(t *testing.T) {
	text := strings.Repeat("x", 60) + "\n\n" + strings.Repeat("y", 60) + "\n\n" + strings.Repeat("z", 60)
	chunks := ChunkPage(Page{Number: 1, Text: text}, 100, 0)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for _, ch := range chunks {
		if len(ch.Text) > 100 {
			t.Errorf("chunk %d has %d chars, exceeds bound", ch.Index, len(ch.Text))
		}
	}
}

func TestChunkPageHardSplitsOversizedParagraph(t *testing.T) {
	text := strings.Repeat("a", 350)
	chunks := ChunkPage(Page{Number: 2, Text: text}, 100, 20)

	if len(chunks) < 4 {
		t.Fatalf("got %d chunks for 350 chars at max 100 with overlap 20", len(chunks))
	}
	for _, ch := range chunks {
		if len(ch.Text) > 100 {
			t.Errorf("chunk %d has %d chars, exceeds bound", ch.Index, len(ch.Text))
		}
	}
	// Consecutive hard-split chunks repeat the overlap window.
	first, second := chunks[0].Text, chunks[1].Text
	if !strings.HasPrefix(second, first[len(first)-20:]) {
		t.Error("second chunk does not start with the previous overlap window")
	}
}

func TestChunkPageKeepsRunesIntact(t *testing.T) {
	// German text is full of multi-byte runes; a hard split must never cut
	// through one.
	chunks := ChunkPage(Page{Number: 1, Text: strings.Repeat("ä", 101)}, 25, 5)
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	for _, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d is not valid UTF-8: %q", ch.Index, ch.Text)
		}
		if len(ch.Text) > 25 {
			t.Errorf("chunk %d has %d bytes, exceeds bound", ch.Index, len(ch.Text))
		}
	}

	text := "Wärmepumpen ersetzen Ölheizungen. " + strings.Repeat("Stromverbrauch wächst über die Jahre. ", 10)
	for _, ch := range ChunkPage(Page{Number: 2, Text: text}, 60, 15) {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d is not valid UTF-8: %q", ch.Index, ch.Text)
		}
	}
}

func TestOverlapTailKeepsRunesIntact(t *testing.T) {
	got := overlapTail(strings.Repeat("ö", 20), 7)
	if !utf8.ValidString(got) {
		t.Errorf("tail is not valid UTF-8: %q", got)
	}
	if got == "" {
		t.Error("tail is empty")
	}
}

func TestChunkIndexesAreSequential(t *testing.T) {
	text := strings.Repeat("words and more words. ", 40)
	chunks := ChunkPage(Page{Number: 5, Text: text}, 120, 30)
	for i, ch := range chunks {
		if ch.Index != i+1 {
			t.Errorf("chunk %d has Index %d", i, ch.Index)
		}
	}
}

func TestSplitParagraphsFallsBackToLines(t *testing.T) {
	text := "line one\nline two\nline three\nline four\nline five"
	paras := splitParagraphs(text)
	if len(paras) != 5 {
		t.Errorf("got %d paragraphs, want 5 lines", len(paras))
	}
}

func TestOverlapTailWordBoundary(t *testing.T) {
	got := overlapTail("the quick brown fox", 9)
	if got != "fox" {
		t.Errorf("overlapTail = %q", got)
	}
	if got := overlapTail("anything", 0); got != "" {
		t.Errorf("zero overlap = %q", got)
	}
}
