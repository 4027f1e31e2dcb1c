// Package index builds the four retrieval collections from the CSV and PDF
// corpus. Record IDs are stable (source file plus page/chunk offsets), so
// re-running the builder without --reset upserts in place instead of
// duplicating.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/corpus"
	"github.com/swissenergydata/decipher/internal/pdfx"
	"github.com/swissenergydata/decipher/internal/progress"
	"github.com/swissenergydata/decipher/internal/vectordb"
)

// Builder produces or refreshes the retrieval collections.
type Builder struct {
	store      vectordb.Store
	catalog    *corpus.Catalog
	reportsDir string
	indexDir   string
	chunk      config.ChunkConfig
	reporter   progress.Reporter
}

// NewBuilder creates a Builder. reporter may be nil.
func NewBuilder(store vectordb.Store, catalog *corpus.Catalog, reportsDir, indexDir string, chunk config.ChunkConfig, reporter progress.Reporter) *Builder {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Builder{
		store:      store,
		catalog:    catalog,
		reportsDir: reportsDir,
		indexDir:   indexDir,
		chunk:      chunk,
		reporter:   reporter,
	}
}

// Result summarizes one build run.
type Result struct {
	FilesProcessed int
	FilesSkipped   int // unchanged since last build
	FilesFailed    int // unreadable or malformed, dropped from the corpus
	RecordCounts   map[string]int
	Duration       time.Duration
}

// Build scans the corpus and upserts records. With reset, every collection
// is dropped and rebuilt and the state file is discarded.
func (b *Builder) Build(ctx context.Context, reset bool) (*Result, error) {
	start := time.Now()
	result := &Result{}

	if reset {
		for _, name := range vectordb.Collections {
			if err := b.store.Reset(ctx, name); err != nil {
				return nil, fmt.Errorf("reset %s: %w", name, err)
			}
		}
	}

	state, err := LoadState(b.indexDir)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if reset {
		state.FileHashes = make(map[string]string)
	}

	if err := b.catalog.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan datasets: %w", err)
	}
	result.FilesFailed += len(b.catalog.Skipped())

	reports, err := pdfx.ListReports(b.reportsDir)
	if err != nil {
		return nil, err
	}

	cards := b.catalog.Cards()
	total := len(cards) + len(reports)
	b.reporter.Start(total)
	defer b.reporter.Finish()
	done := 0

	// Dataset cards.
	for _, card := range cards {
		done++
		b.reporter.Update(done, card.ID)

		hash, err := fileHash(card.Path)
		if err != nil {
			log.Printf("index: hashing %s: %v", card.ID, err)
			result.FilesFailed++
			continue
		}
		if !state.IsChanged(card.ID, hash) {
			result.FilesSkipped++
			continue
		}

		rec := vectordb.Record{
			ID:   card.ID,
			Text: card.Text(),
			Metadata: vectordb.RecordMetadata{
				DatasetID: card.ID,
				Category:  string(card.Category),
			},
		}
		if err := b.store.Upsert(ctx, vectordb.CollectionDatasetCards, []vectordb.Record{rec}); err != nil {
			return result, fmt.Errorf("upsert dataset card %s: %w", card.ID, err)
		}
		state.FileHashes[card.ID] = hash
		result.FilesProcessed++
	}

	// PDF reports.
	for _, name := range reports {
		done++
		b.reporter.Update(done, name)

		path := filepath.Join(b.reportsDir, name)
		hash, err := fileHash(path)
		if err != nil {
			log.Printf("index: hashing %s: %v", name, err)
			result.FilesFailed++
			continue
		}
		if !state.IsChanged(name, hash) {
			result.FilesSkipped++
			continue
		}

		doc, err := pdfx.Extract(path)
		if err != nil {
			log.Printf("index: skipping %s: %v", name, err)
			result.FilesFailed++
			continue
		}

		if err := b.indexDocument(ctx, doc); err != nil {
			return result, err
		}
		state.FileHashes[name] = hash
		result.FilesProcessed++
	}

	if err := b.store.Persist(ctx, b.indexDir); err != nil {
		return result, fmt.Errorf("persist index: %w", err)
	}
	if err := state.Save(b.indexDir); err != nil {
		return result, fmt.Errorf("save state: %w", err)
	}

	result.RecordCounts = b.store.Counts()
	result.Duration = time.Since(start)
	return result, nil
}

// indexDocument converts one extracted PDF into chunk, caption, and table
// records.
func (b *Builder) indexDocument(ctx context.Context, doc *pdfx.Document) error {
	var chunks, figures, tables []vectordb.Record

	for _, page := range doc.Pages {
		for _, ch := range pdfx.ChunkPage(page, b.chunk.MaxChars, b.chunk.OverlapChars) {
			chunks = append(chunks, vectordb.Record{
				ID:   fmt.Sprintf("%s::p%d::c%d", doc.ID, ch.Page, ch.Index),
				Text: ch.Text,
				Metadata: vectordb.RecordMetadata{
					Doc:      doc.ID,
					Page:     ch.Page,
					ChunkID:  ch.Index,
					Category: doc.Category,
					Language: doc.Language,
				},
			})
		}

		for _, cap := range pdfx.DetectCaptions(page) {
			switch cap.Kind {
			case pdfx.CaptionFigure:
				figures = append(figures, vectordb.Record{
					ID:   fmt.Sprintf("%s::p%d::fig%d", doc.ID, cap.Page, cap.Index),
					Text: cap.Text,
					Metadata: vectordb.RecordMetadata{
						Doc:      doc.ID,
						Page:     cap.Page,
						FigureID: cap.Index,
						Category: doc.Category,
						Language: doc.Language,
					},
				})
			case pdfx.CaptionTable:
				tablePath := b.writeTableArtifact(doc.ID, cap)
				tables = append(tables, vectordb.Record{
					ID:   fmt.Sprintf("%s::p%d::tab%d", doc.ID, cap.Page, cap.Index),
					Text: cap.Text,
					Metadata: vectordb.RecordMetadata{
						Doc:       doc.ID,
						Page:      cap.Page,
						TableID:   cap.Index,
						Category:  doc.Category,
						Language:  doc.Language,
						TablePath: tablePath,
					},
				})
			}
		}
	}

	if err := b.store.Upsert(ctx, vectordb.CollectionPDFChunks, chunks); err != nil {
		return fmt.Errorf("upsert chunks for %s: %w", doc.ID, err)
	}
	if err := b.store.Upsert(ctx, vectordb.CollectionFigureCaptions, figures); err != nil {
		return fmt.Errorf("upsert figure captions for %s: %w", doc.ID, err)
	}
	if err := b.store.Upsert(ctx, vectordb.CollectionTableExtracts, tables); err != nil {
		return fmt.Errorf("upsert table extracts for %s: %w", doc.ID, err)
	}
	return nil
}

// writeTableArtifact persists a table caption's text as a TSV artifact and
// returns its path, or "" when writing fails. Artifacts are derived data;
// failure to write one never fails the build.
func (b *Builder) writeTableArtifact(docID string, cap pdfx.Caption) string {
	dir := filepath.Join(b.indexDir, "tables")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("index: creating %s: %v", dir, err)
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_p%d_t%d.tsv", docID, cap.Page, cap.Index))
	if err := os.WriteFile(path, []byte(cap.Text+"\n"), 0o644); err != nil {
		log.Printf("index: writing %s: %v", path, err)
		return ""
	}
	return path
}

// fileHash returns the hex SHA-256 of a file's contents.
func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
