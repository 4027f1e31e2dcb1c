// Package retrieval wraps the vector store with the query-side semantics the
// agents rely on: searches never fail, they degrade to empty results, and
// top candidates are optionally reranked by a keyword-overlap signal.
package retrieval

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/swissenergydata/decipher/internal/vectordb"
)

// Retriever performs semantic search over the index collections.
type Retriever struct {
	store        vectordb.Store
	rerankWeight float64 // keyword blend weight in [0,1]; 0 disables reranking
}

// New creates a Retriever over the given store.
func New(store vectordb.Store, rerankWeight float64) *Retriever {
	if rerankWeight < 0 || rerankWeight > 1 {
		rerankWeight = 0
	}
	return &Retriever{store: store, rerankWeight: rerankWeight}
}

// Search returns up to k hits from the named collection in decreasing score
// order. An absent or empty collection, or an embedding failure, yields an
// empty slice; callers treat no results as a normal outcome and fall back to
// keyword matching.
func (r *Retriever) Search(ctx context.Context, collection, query string, k int) []vectordb.Hit {
	if k <= 0 || query == "" {
		return nil
	}

	hits, err := r.store.Search(ctx, collection, query, k)
	if err != nil {
		log.Printf("retrieval: search %s: %v", collection, err)
		return nil
	}

	if r.rerankWeight > 0 {
		hits = r.rerank(query, hits)
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SearchReports searches all three report-derived collections and merges the
// results into one ranking.
func (r *Retriever) SearchReports(ctx context.Context, query string, k int) []vectordb.Hit {
	var merged []vectordb.Hit
	for _, collection := range []string{
		vectordb.CollectionPDFChunks,
		vectordb.CollectionFigureCaptions,
		vectordb.CollectionTableExtracts,
	} {
		merged = append(merged, r.Search(ctx, collection, query, k)...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

// SearchDatasets searches the dataset card collection.
func (r *Retriever) SearchDatasets(ctx context.Context, query string, k int) []vectordb.Hit {
	return r.Search(ctx, vectordb.CollectionDatasetCards, query, k)
}

// rerank blends the cosine score with a keyword-overlap ratio. The blend is
// stable, so equal scores keep their original index order.
func (r *Retriever) rerank(query string, hits []vectordb.Hit) []vectordb.Hit {
	words := keywordSet(query)
	if len(words) == 0 {
		return hits
	}

	w := float32(r.rerankWeight)
	for i := range hits {
		overlap := keywordOverlap(words, hits[i].Record.Text)
		hits[i].Score = (1-w)*hits[i].Score + w*overlap
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

func keywordSet(query string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) >= 3 {
			set[f] = struct{}{}
		}
	}
	return set
}

// keywordOverlap is the fraction of query words appearing in the text.
func keywordOverlap(words map[string]struct{}, text string) float32 {
	if len(words) == 0 {
		return 0
	}
	low := strings.ToLower(text)
	matched := 0
	for w := range words {
		if strings.Contains(low, w) {
			matched++
		}
	}
	return float32(matched) / float32(len(words))
}
