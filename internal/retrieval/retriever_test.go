package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/swissenergydata/decipher/internal/vectordb"
)

// fakeStore returns canned hits per collection, or an error for every search.
type fakeStore struct {
	hits map[string][]vectordb.Hit
	err  error
}

func (f *fakeStore) Search(ctx context.Context, collection, query string, k int) ([]vectordb.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	hits := f.hits[collection]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeStore) Upsert(ctx context.Context, collection string, records []vectordb.Record) error {
	return nil
}
func (f *fakeStore) Reset(ctx context.Context, collection string) error { return nil }
func (f *fakeStore) Count(collection string) int                        { return len(f.hits[collection]) }
func (f *fakeStore) Counts() map[string]int                             { return nil }
func (f *fakeStore) Persist(ctx context.Context, dir string) error      { return nil }
func (f *fakeStore) Load(ctx context.Context, dir string) error         { return nil }

func hit(id, text string, score float32) vectordb.Hit {
	return vectordb.Hit{Record: vectordb.Record{ID: id, Text: text}, Score: score}
}

func TestSearchEmptyIndex(t *testing.T) {
	r := New(&fakeStore{}, 0)
	if got := r.Search(context.Background(), vectordb.CollectionPDFChunks, "anything", 5); len(got) != 0 {
		t.Errorf("got %d hits, want 0", len(got))
	}
}

func TestSearchSwallowsStoreErrors(t *testing.T) {
	r := New(&fakeStore{err: errors.New("embedding backend down")}, 0)
	got := r.Search(context.Background(), vectordb.CollectionPDFChunks, "anything", 5)
	if got != nil {
		t.Errorf("got %v, want nil on store error", got)
	}
}

func TestSearchInvalidArgs(t *testing.T) {
	store := &fakeStore{hits: map[string][]vectordb.Hit{
		vectordb.CollectionPDFChunks: {hit("a", "text", 0.9)},
	}}
	r := New(store, 0)
	ctx := context.Background()

	if got := r.Search(ctx, vectordb.CollectionPDFChunks, "", 5); len(got) != 0 {
		t.Error("empty query returned hits")
	}
	if got := r.Search(ctx, vectordb.CollectionPDFChunks, "q", 0); len(got) != 0 {
		t.Error("k=0 returned hits")
	}
}

func TestRerankPromotesKeywordOverlap(t *testing.T) {
	store := &fakeStore{hits: map[string][]vectordb.Hit{
		vectordb.CollectionPDFChunks: {
			hit("cosine-winner", "unrelated passage about hydro power", 0.80),
			hit("keyword-winner", "CO2 emissions pathway to net zero", 0.78),
		},
	}}

	// Without reranking, cosine order stands.
	plain := New(store, 0)
	got := plain.Search(context.Background(), vectordb.CollectionPDFChunks, "CO2 emissions net zero", 2)
	if got[0].Record.ID != "cosine-winner" {
		t.Fatalf("unexpected baseline order: %q first", got[0].Record.ID)
	}

	// With a keyword blend the overlapping passage wins.
	blended := New(store, 0.5)
	got = blended.Search(context.Background(), vectordb.CollectionPDFChunks, "CO2 emissions net zero", 2)
	if got[0].Record.ID != "keyword-winner" {
		t.Errorf("reranked order: %q first, want keyword-winner", got[0].Record.ID)
	}
}

func TestSearchReportsMergesCollections(t *testing.T) {
	store := &fakeStore{hits: map[string][]vectordb.Hit{
		vectordb.CollectionPDFChunks:      {hit("chunk", "a", 0.6)},
		vectordb.CollectionFigureCaptions: {hit("figure", "b", 0.9)},
		vectordb.CollectionTableExtracts:  {hit("table", "c", 0.7)},
	}}
	r := New(store, 0)

	got := r.SearchReports(context.Background(), "query", 2)
	if len(got) != 2 {
		t.Fatalf("got %d hits, want 2", len(got))
	}
	if got[0].Record.ID != "figure" || got[1].Record.ID != "table" {
		t.Errorf("merged order = %q, %q", got[0].Record.ID, got[1].Record.ID)
	}
}

func TestInvalidRerankWeightDisabled(t *testing.T) {
	store := &fakeStore{hits: map[string][]vectordb.Hit{
		vectordb.CollectionPDFChunks: {
			hit("first", "no overlap here", 0.9),
			hit("second", "query words everywhere", 0.8),
		},
	}}
	r := New(store, 1.5)
	got := r.Search(context.Background(), vectordb.CollectionPDFChunks, "query words", 2)
	if got[0].Record.ID != "first" {
		t.Errorf("out-of-range weight changed ordering: %q first", got[0].Record.ID)
	}
}
