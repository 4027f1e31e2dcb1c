package vectordb

import "context"

// Store defines the interface for the multi-collection vector index.
type Store interface {
	// Upsert adds or replaces records in the named collection. Records with
	// IDs already present are overwritten, not duplicated.
	Upsert(ctx context.Context, collection string, records []Record) error

	// Search performs a semantic search in the named collection. An empty or
	// unknown collection yields no results and no error.
	Search(ctx context.Context, collection, query string, k int) ([]Hit, error)

	// Reset drops and recreates the named collection.
	Reset(ctx context.Context, collection string) error

	// Count returns the number of records in the named collection.
	Count(collection string) int

	// Counts returns record counts for every collection.
	Counts() map[string]int

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory.
	Load(ctx context.Context, dir string) error
}
