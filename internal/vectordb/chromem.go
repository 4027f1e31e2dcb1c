package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/swissenergydata/decipher/internal/embeddings"
)

const exportFile = "index.gob.gz"

// ChromemStore implements Store using chromem-go, one chromem collection per
// retrieval collection.
type ChromemStore struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	embedFunc   chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore with all four
// collections present (possibly empty).
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	s := &ChromemStore{
		db:          db,
		collections: make(map[string]*chromem.Collection, len(Collections)),
		embedFunc:   ef,
	}

	for _, name := range Collections {
		col, err := db.GetOrCreateCollection(name, nil, ef)
		if err != nil {
			return nil, fmt.Errorf("create collection %s: %w", name, err)
		}
		s.collections[name] = col
	}

	return s, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, records []Record) error {
	col, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, rec := range records {
		if rec.Text == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:       rec.ID,
			Content:  rec.Text,
			Metadata: metadataToMap(rec.Metadata),
		})
	}
	if len(docs) == 0 {
		return nil
	}

	return col.AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, collection, query string, k int) ([]Hit, error) {
	col, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	if k <= 0 {
		k = 10
	}

	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query %s: %w", collection, err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			Record: Record{
				ID:       r.ID,
				Text:     r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Score: r.Similarity,
		}
	}
	return hits, nil
}

func (s *ChromemStore) Reset(ctx context.Context, collection string) error {
	if !ValidCollection(collection) {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	col, err := s.db.GetOrCreateCollection(collection, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreate collection %s: %w", collection, err)
	}
	s.collections[collection] = col
	return nil
}

func (s *ChromemStore) Count(collection string) int {
	col, ok := s.collections[collection]
	if !ok {
		return 0
	}
	return col.Count()
}

func (s *ChromemStore) Counts() map[string]int {
	counts := make(map[string]int, len(Collections))
	for _, name := range Collections {
		counts[name] = s.Count(name)
	}
	return counts
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, exportFile), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	path := filepath.Join(dir, exportFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// No index built yet; collections stay empty and searches return
		// nothing, which callers treat as a normal outcome.
		return nil
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection references after import.
	for _, name := range Collections {
		col := s.db.GetCollection(name, s.embedFunc)
		if col == nil {
			created, err := s.db.GetOrCreateCollection(name, nil, s.embedFunc)
			if err != nil {
				return fmt.Errorf("recreate collection %s after import: %w", name, err)
			}
			col = created
		}
		s.collections[name] = col
	}
	return nil
}

// metadataToMap converts RecordMetadata to a flat map[string]string for chromem.
func metadataToMap(m RecordMetadata) map[string]string {
	md := map[string]string{
		"doc":        m.Doc,
		"page":       strconv.Itoa(m.Page),
		"chunk_id":   strconv.Itoa(m.ChunkID),
		"figure_id":  strconv.Itoa(m.FigureID),
		"table_id":   strconv.Itoa(m.TableID),
		"dataset_id": m.DatasetID,
		"category":   m.Category,
		"language":   m.Language,
		"image_path": m.ImagePath,
		"table_path": m.TablePath,
	}
	return md
}

// mapToMetadata converts a flat map[string]string back to RecordMetadata.
func mapToMetadata(m map[string]string) RecordMetadata {
	page, _ := strconv.Atoi(m["page"])
	chunkID, _ := strconv.Atoi(m["chunk_id"])
	figureID, _ := strconv.Atoi(m["figure_id"])
	tableID, _ := strconv.Atoi(m["table_id"])

	return RecordMetadata{
		Doc:       m["doc"],
		Page:      page,
		ChunkID:   chunkID,
		FigureID:  figureID,
		TableID:   tableID,
		DatasetID: m["dataset_id"],
		Category:  m["category"],
		Language:  m["language"],
		ImagePath: m["image_path"],
		TablePath: m["table_path"],
	}
}
