package corpus

import "strings"

// ScenarioInfo is static metadata about one modelled pathway.
type ScenarioInfo struct {
	Name        string
	Description string
	KeyFeatures []string
}

// KnownScenarios describes the pathways of the Energy Perspectives 2050+
// study. The list is closed; datasets reference these names in their
// scenario column.
var KnownScenarios = []ScenarioInfo{
	{
		Name:        "ZERO-Basis",
		Description: "Net-zero greenhouse gas emissions by 2050",
		KeyFeatures: []string{
			"Accelerated renewable deployment",
			"Transport electrification",
			"Building heating transformation",
			"Industrial process changes",
			"Carbon pricing mechanisms",
		},
	},
	{
		Name:        "WWB",
		Description: "Weiter wie bisher: business-as-usual reference case",
		KeyFeatures: []string{
			"Current policy continuation",
			"Moderate renewable growth",
			"Limited structural changes",
			"Gradual efficiency improvements",
		},
	},
}

// KnownVariants are the sub-assumption sets that partition each scenario.
var KnownVariants = map[string]string{
	"KKW50": "Existing nuclear plants operate for 50 years",
	"KKW60": "Existing nuclear plants operate for 60 years",
}

// variantOrder fixes the detection precedence when a query names several.
var variantOrder = []string{"KKW50", "KKW60"}

// ScenarioByName returns the scenario metadata for name, if known.
func ScenarioByName(name string) (ScenarioInfo, bool) {
	for _, s := range KnownScenarios {
		if s.Name == name {
			return s, true
		}
	}
	return ScenarioInfo{}, false
}

// DetectScenarios finds scenario names mentioned in a query. With no
// explicit mention it returns all known scenarios, so comparisons default to
// covering every pathway.
func DetectScenarios(query string) []string {
	q := strings.ToLower(query)
	var found []string
	if strings.Contains(q, "zero") || strings.Contains(q, "net-zero") || strings.Contains(q, "net zero") {
		found = append(found, "ZERO-Basis")
	}
	if strings.Contains(q, "wwb") || strings.Contains(q, "business as usual") || strings.Contains(q, "weiter wie bisher") {
		found = append(found, "WWB")
	}
	if len(found) == 0 {
		for _, s := range KnownScenarios {
			found = append(found, s.Name)
		}
	}
	return found
}

// DetectVariant finds a variant name mentioned in a query, if any.
func DetectVariant(query string) string {
	q := strings.ToUpper(query)
	for _, v := range variantOrder {
		if strings.Contains(q, v) {
			return v
		}
	}
	return ""
}
