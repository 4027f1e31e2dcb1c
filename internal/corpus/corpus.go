// Package corpus provides read-only access to the CSV dataset corpus: a
// catalog of dataset cards, filtered row loads, and descriptive statistics.
// All querying goes through an in-memory DuckDB instance reading the CSV
// files directly.
package corpus

import (
	"fmt"
	"strings"
)

// Category is a dataset namespace, mapping to a subdirectory of the data root.
type Category string

const (
	CategorySynthesis      Category = "synthesis"
	CategoryTransformation Category = "transformation"
)

// Categories lists the dataset namespaces in a fixed order.
var Categories = []Category{CategorySynthesis, CategoryTransformation}

// Core columns of the corpus schema. Every column is individually optional;
// filters silently skip columns a file does not have.
const (
	ColVariable = "variable"
	ColUnit     = "unit"
	ColYear     = "year"
	ColValue    = "value"
	ColScenario = "scenario"
	ColVariant  = "variant"
)

// ExtraColumns are the optional dimension columns some files carry.
var ExtraColumns = []string{"sector", "fuel", "technology", "purpose"}

// DatasetCard describes one CSV resource: schema and value domains, built
// without embedding raw row data. Cards are built once at index time and are
// read-only afterwards.
type DatasetCard struct {
	ID        string   // filename, unique within the corpus
	Path      string   // absolute file path
	Category  Category // synthesis or transformation
	Schema    []string // column names in file order
	Units     []string
	Scenarios []string
	Variants  []string
	Variables []string
	YearMin   int
	YearMax   int
}

// Text renders the card as the single string that gets embedded for
// retrieval over the dataset_cards collection.
func (c DatasetCard) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s | %s | schema: %s", c.ID, c.Category, strings.Join(c.Schema, ", "))
	if len(c.Units) > 0 {
		fmt.Fprintf(&sb, " | units: %s", strings.Join(c.Units, ", "))
	}
	if len(c.Scenarios) > 0 {
		fmt.Fprintf(&sb, " | scenarios: %s", strings.Join(c.Scenarios, ", "))
	}
	if c.YearMin > 0 && c.YearMax >= c.YearMin {
		fmt.Fprintf(&sb, " | years %d-%d", c.YearMin, c.YearMax)
	}
	if len(c.Variables) > 0 {
		fmt.Fprintf(&sb, " | variables: %s", strings.Join(c.Variables, "; "))
	}
	return sb.String()
}

// Row is one observation from a dataset. Absent columns are left at their
// zero value; Extra carries any optional dimension columns present.
type Row struct {
	Variable string
	Unit     string
	Year     int
	Value    float64
	Scenario string
	Variant  string
	Extra    map[string]string
}

// Filter narrows a dataset load. Zero-valued fields do not constrain.
// Constraints on columns the file does not have are ignored.
type Filter struct {
	Variable string
	Scenario string
	Variant  string
	YearFrom int
	YearTo   int
}
