package vectordb

// Collection names for the four retrieval modalities.
const (
	CollectionPDFChunks      = "pdf_chunks"
	CollectionFigureCaptions = "figure_captions"
	CollectionTableExtracts  = "table_extracts"
	CollectionDatasetCards   = "dataset_cards"
)

// Collections lists all collection names in a fixed order.
var Collections = []string{
	CollectionPDFChunks,
	CollectionFigureCaptions,
	CollectionTableExtracts,
	CollectionDatasetCards,
}

// ValidCollection reports whether name is one of the known collections.
func ValidCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Record is one indexed unit: a PDF text chunk, a figure caption, a table
// extract, or a dataset card. IDs are stable across rebuilds (derived from
// source file plus page/chunk offsets), which makes upserts idempotent.
type Record struct {
	ID       string
	Text     string
	Metadata RecordMetadata
}

// RecordMetadata holds provenance for a record.
type RecordMetadata struct {
	Doc       string // source document ID (PDF basename without extension)
	Page      int
	ChunkID   int
	FigureID  int
	TableID   int
	DatasetID string // for dataset cards: the CSV filename
	Category  string // dataset namespace (synthesis|transformation) or document category
	Language  string
	ImagePath string // derived figure artifact, if extracted
	TablePath string // derived TSV artifact, if extracted
}

// Hit pairs a record with its relevance score, higher is more relevant.
type Hit struct {
	Record Record
	Score  float32
}
