package corpus

import "testing"

func TestDetectScenarios(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"net-zero emissions by 2050", []string{"ZERO-Basis"}},
		{"what does WWB assume", []string{"WWB"}},
		{"compare ZERO with business as usual", []string{"ZERO-Basis", "WWB"}},
		{"how much electricity in 2040", []string{"ZERO-Basis", "WWB"}}, // default: all
	}
	for _, tt := range tests {
		got := DetectScenarios(tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("DetectScenarios(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("DetectScenarios(%q) = %v, want %v", tt.query, got, tt.want)
				break
			}
		}
	}
}

func TestDetectVariant(t *testing.T) {
	if got := DetectVariant("assuming kkw60 lifetimes"); got != "KKW60" {
		t.Errorf("got %q", got)
	}
	if got := DetectVariant("no variant mentioned"); got != "" {
		t.Errorf("got %q", got)
	}
	// A query naming both variants always resolves the same way.
	for i := 0; i < 20; i++ {
		if got := DetectVariant("compare KKW50 with KKW60"); got != "KKW50" {
			t.Fatalf("got %q, want KKW50", got)
		}
	}
}

func TestScenarioByName(t *testing.T) {
	info, ok := ScenarioByName("ZERO-Basis")
	if !ok || info.Description == "" || len(info.KeyFeatures) == 0 {
		t.Errorf("ScenarioByName(ZERO-Basis) = %+v, %v", info, ok)
	}
	if _, ok := ScenarioByName("nope"); ok {
		t.Error("unknown scenario reported as known")
	}
}
