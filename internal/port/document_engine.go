package port

import (
	"context"
	"sort"
	"strings"

	"docproc/internal/document"
)

// EngineOptions is the full construction-time configuration of a document engine.
type EngineOptions struct {
	EnableOCR      bool
	OCRLanguages   []string
	TableStructure bool
	NumThreads     int
	Device         string
	AllowedFormats []string
}

// Key identifies the engine configuration for pooling. Two option sets with the
// same OCR flag and the same language set share an engine.
func (o EngineOptions) Key() string {
	if !o.EnableOCR {
		return "ocr=off"
	}
	langs := append([]string(nil), o.OCRLanguages...)
	sort.Strings(langs)
	return "ocr=on;langs=" + strings.Join(langs, ",")
}

// DocumentEngine converts a stored file into a structured document.
// Implementations are immutable once built and safe for concurrent use.
type DocumentEngine interface {
	Convert(ctx context.Context, path string) (*document.Document, error)
	Options() EngineOptions
}

// EngineFactory builds engines.
type EngineFactory interface {
	Build(ctx context.Context, opts EngineOptions) (DocumentEngine, error)
	// DefaultOptions is the configuration used when a requested build fails.
	DefaultOptions() EngineOptions
}
