// Package pdfx extracts text, chunks, and caption lines from the PDF report
// corpus. Extraction is best-effort: an unreadable file or page yields no
// content rather than an error that would abort indexing.
package pdfx

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the extracted plain text of one PDF page.
type Page struct {
	Number int // 1-based
	Text   string
}

// Document is an extracted PDF report.
type Document struct {
	ID       string // basename without extension
	Path     string
	Category string // Kurzbericht, Technischer Bericht, ...
	Language string // German, French, English
	Pages    []Page
}

// ListReports returns the PDF filenames under dir, sorted by name. A missing
// directory is an empty corpus, not an error.
func ListReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading reports dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Extract reads a PDF and returns its per-page text. Pages that fail to
// decode are skipped with a log line.
func Extract(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	doc := &Document{
		ID:       docID(name),
		Path:     path,
		Category: Categorize(name),
		Language: DetectLanguage(name),
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("pdfx: %s page %d: %v", name, i, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text})
	}

	return doc, nil
}

// docID sanitizes a PDF filename into a stable document identifier.
func docID(name string) string {
	id := strings.TrimSuffix(name, filepath.Ext(name))
	id = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	return id
}
