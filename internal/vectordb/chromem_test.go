package vectordb

import (
	"context"
	"hash/fnv"
	"testing"
)

// mockEmbedder produces deterministic one-hot unit vectors keyed by text
// hash, so identical texts are nearest neighbors of each other.
type mockEmbedder struct{}

const mockDims = 64

func (mockEmbedder) Name() string    { return "mock" }
func (mockEmbedder) Dimensions() int { return mockDims }

func (mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New32a()
		h.Write([]byte(text))
		vec := make([]float32, mockDims)
		vec[h.Sum32()%mockDims] = 1
		out[i] = vec
	}
	return out, nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := NewChromemStore(mockEmbedder{})
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	return s
}

func TestSearchEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	hits, err := s.Search(context.Background(), CollectionPDFChunks, "anything", 5)
	if err != nil {
		t.Fatalf("Search on empty collection: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestUpsertAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		{ID: "doc::p1::c0", Text: "CO2 emissions decline to net zero", Metadata: RecordMetadata{Doc: "doc", Page: 1}},
		{ID: "doc::p2::c0", Text: "electricity production from hydro", Metadata: RecordMetadata{Doc: "doc", Page: 2}},
	}
	if err := s.Upsert(ctx, CollectionPDFChunks, records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := s.Search(ctx, CollectionPDFChunks, "CO2 emissions decline to net zero", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Record.ID != "doc::p1::c0" {
		t.Errorf("top hit = %q", hits[0].Record.ID)
	}
	if hits[0].Record.Metadata.Page != 1 {
		t.Errorf("metadata page = %d", hits[0].Record.Metadata.Page)
	}
}

func TestUpsertSameIDReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := Record{ID: "card.csv", Text: "first version"}
	if err := s.Upsert(ctx, CollectionDatasetCards, []Record{rec}); err != nil {
		t.Fatal(err)
	}
	rec.Text = "second version"
	if err := s.Upsert(ctx, CollectionDatasetCards, []Record{rec}); err != nil {
		t.Fatal(err)
	}

	if got := s.Count(CollectionDatasetCards); got != 1 {
		t.Errorf("count = %d, want 1 after re-upsert", got)
	}
}

func TestSearchClampsK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, CollectionFigureCaptions, []Record{{ID: "a", Text: "Abbildung 1"}}); err != nil {
		t.Fatal(err)
	}
	hits, err := s.Search(ctx, CollectionFigureCaptions, "Abbildung 1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1", len(hits))
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, CollectionTableExtracts, []Record{{ID: "t1", Text: "Tabelle 1"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx, CollectionTableExtracts); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := s.Count(CollectionTableExtracts); got != 0 {
		t.Errorf("count after reset = %d", got)
	}

	// The collection must remain usable after a reset.
	if err := s.Upsert(ctx, CollectionTableExtracts, []Record{{ID: "t2", Text: "Tabelle 2"}}); err != nil {
		t.Fatalf("Upsert after reset: %v", err)
	}
}

func TestPersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t)
	if err := s.Upsert(ctx, CollectionPDFChunks, []Record{{ID: "x", Text: "persisted chunk"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded := newTestStore(t)
	if err := loaded.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Count(CollectionPDFChunks); got != 1 {
		t.Errorf("count after load = %d, want 1", got)
	}
}

func TestLoadMissingIndexIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("Load with no index file: %v", err)
	}
	for name, count := range s.Counts() {
		if count != 0 {
			t.Errorf("collection %s has %d records", name, count)
		}
	}
}
