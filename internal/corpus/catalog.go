package corpus

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

const maxDomainValues = 200

// Catalog scans the data root and builds one DatasetCard per readable CSV
// file. Files that cannot be read or described are skipped, never fatal.
type Catalog struct {
	db      *DB
	root    string
	include []string
	exclude []string

	mu      sync.RWMutex
	cards   []DatasetCard
	skipped []string
}

// NewCatalog creates a catalog over the given data root. The root is
// expected to contain synthesis/ and transformation/ subdirectories.
func NewCatalog(db *DB, root string, include, exclude []string) *Catalog {
	if len(include) == 0 {
		include = []string{"**"}
	}
	return &Catalog{db: db, root: root, include: include, exclude: exclude}
}

// Scan rebuilds the card list from disk. Malformed files are skipped and
// surfaced via Skipped.
func (c *Catalog) Scan(ctx context.Context) error {
	var cards []DatasetCard
	var skipped []string

	for _, category := range Categories {
		dir := filepath.Join(c.root, string(category))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("corpus: reading %s: %v", dir, err)
			}
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
				continue
			}
			rel := filepath.Join(string(category), entry.Name())
			if !c.matches(rel) {
				continue
			}

			card, err := c.buildCard(ctx, category, filepath.Join(dir, entry.Name()))
			if err != nil {
				log.Printf("corpus: skipping %s: %v", rel, err)
				skipped = append(skipped, rel)
				continue
			}
			cards = append(cards, card)
		}
	}

	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Category != cards[j].Category {
			return cards[i].Category < cards[j].Category
		}
		return cards[i].ID < cards[j].ID
	})

	c.mu.Lock()
	c.cards = cards
	c.skipped = skipped
	c.mu.Unlock()
	return nil
}

func (c *Catalog) matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range c.exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	for _, pat := range c.include {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func (c *Catalog) buildCard(ctx context.Context, category Category, path string) (DatasetCard, error) {
	cols, err := c.db.columns(ctx, path)
	if err != nil {
		return DatasetCard{}, err
	}

	card := DatasetCard{
		ID:       filepath.Base(path),
		Path:     path,
		Category: category,
		Schema:   cols,
	}

	// Value domains come from the file itself; any of these columns may be
	// absent.
	if has(cols, ColUnit) {
		card.Units, _ = c.db.distinct(ctx, path, ColUnit, maxDomainValues)
	}
	if has(cols, ColScenario) {
		card.Scenarios, _ = c.db.distinct(ctx, path, ColScenario, maxDomainValues)
	}
	if has(cols, ColVariant) {
		card.Variants, _ = c.db.distinct(ctx, path, ColVariant, maxDomainValues)
	}
	if has(cols, ColVariable) {
		card.Variables, _ = c.db.distinct(ctx, path, ColVariable, maxDomainValues)
	}
	if has(cols, ColYear) {
		card.YearMin, card.YearMax, _ = c.db.yearRange(ctx, path)
	}

	return card, nil
}

// Cards returns the cards from the last scan.
func (c *Catalog) Cards() []DatasetCard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DatasetCard, len(c.cards))
	copy(out, c.cards)
	return out
}

// Card looks up a card by dataset ID.
func (c *Catalog) Card(id string) (DatasetCard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, card := range c.cards {
		if card.ID == id {
			return card, true
		}
	}
	return DatasetCard{}, false
}

// Skipped returns corpus files dropped during the last scan.
func (c *Catalog) Skipped() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// Load reads rows from the identified dataset with the given filter.
func (c *Catalog) Load(ctx context.Context, id string, f Filter) ([]Row, error) {
	card, ok := c.Card(id)
	if !ok {
		return nil, nil
	}
	return c.db.Load(ctx, card, f)
}

// KeywordMatch is the deterministic fallback used when retrieval yields
// nothing: score cards by query-word hits against filename and variable
// names, return the top k.
func (c *Catalog) KeywordMatch(query string, k int) []DatasetCard {
	words := queryWords(query)
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		card  DatasetCard
		score int
	}
	var matches []scored

	for _, card := range c.Cards() {
		score := 0
		name := strings.ToLower(card.ID)
		for _, w := range words {
			if strings.Contains(name, w) {
				score += 2
			}
		}
		for _, v := range card.Variables {
			lv := strings.ToLower(v)
			for _, w := range words {
				if strings.Contains(lv, w) {
					score++
				}
			}
		}
		if score > 0 {
			matches = append(matches, scored{card, score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > k {
		matches = matches[:k]
	}
	out := make([]DatasetCard, len(matches))
	for i, m := range matches {
		out[i] = m.card
	}
	return out
}

// queryWords lowercases and splits a query, dropping words too short to be
// useful match signals.
func queryWords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '-'
	})
	var words []string
	for _, f := range fields {
		if len(f) >= 3 {
			words = append(words, f)
		}
	}
	return words
}
