package pdfx

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"EP2050+_Kurzbericht_2022.pdf", "Executive Summary"},
		{"EP2050+_Technischer_Bericht.pdf", "Technical Report"},
		{"Faktenblatt_Strom.pdf", "Fact Sheet"},
		{"Exkurs_Wasserstoff.pdf", "Specialized Study"},
		{"Stellungnahmen_Begleitgruppe.pdf", "Stakeholder Input"},
		{"irgendwas.pdf", "General Report"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.filename); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"EP2050+_Kurzbericht_FR.pdf", "French"},
		{"EP2050+_Summary_EN.pdf", "English"},
		{"EP2050+_Kurzbericht.pdf", "German"},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.filename); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestMatchingParagraphs(t *testing.T) {
	doc := &Document{
		Pages: []Page{
			{Number: 1, Text: "Die Emissionen sinken.\n\nDer Stromverbrauch steigt."},
			{Number: 2, Text: "Wasserkraft bleibt wichtig.\n\nEmissionen erreichen netto null."},
		},
	}

	got := MatchingParagraphs(doc, []string{"emissionen"}, 10)
	if len(got) != 2 {
		t.Fatalf("got %d paragraphs, want 2", len(got))
	}

	if got := MatchingParagraphs(doc, []string{"emissionen"}, 1); len(got) != 1 {
		t.Errorf("limit not applied: got %d", len(got))
	}
	if got := MatchingParagraphs(doc, nil, 10); got != nil {
		t.Errorf("nil terms returned %v", got)
	}
	if got := MatchingParagraphs(doc, []string{"kernfusion"}, 10); len(got) != 0 {
		t.Errorf("unmatched term returned %v", got)
	}
}
