package domain

import (
	"time"

	"github.com/google/uuid"

	"docproc/internal/document"
)

// ConversionOptions are the per-request engine and rendering settings.
type ConversionOptions struct {
	EnableOCR    bool
	OCRLanguages []string
	OutputFormat OutputFormat
}

// ChunkOptions are the per-request chunking settings.
type ChunkOptions struct {
	MaxTokens int
	Strategy  ChunkStrategy
}

// UploadedFile describes a validated upload persisted to scratch storage.
type UploadedFile struct {
	OriginalName     string `json:"original_name"`
	DetectedMIMEType string `json:"detected_mime_type"`
	StoredPath       string `json:"stored_path"`
	SizeBytes        int64  `json:"size_bytes"`
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	// Method is how the caller authenticated: "disabled", "secret" or "jwt".
	Method string `json:"method"`
}

// Result is the uniform envelope returned by every orchestrated operation.
// Status 0 means success. A non-zero status carries either no data or a
// payload explicitly marked partial.
type Result struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK reports whether the envelope is a success.
func (r Result) OK() bool { return r.Status == StatusOK }

// Failure builds a failure envelope without data.
func Failure(status int, msg string) Result {
	return Result{Status: status, Message: msg}
}

// DocumentMetadata accompanies rendered content.
type DocumentMetadata struct {
	// PageCount is nil when the source format has no pagination.
	PageCount  *int   `json:"page_count"`
	FileType   string `json:"file_type"`
	EngineMode string `json:"engine_mode,omitempty"`
	ArchiveURL string `json:"archive_url,omitempty"`
}

// ConversionData is the success payload of a conversion.
type ConversionData struct {
	Content        string           `json:"content"`
	ProcessingTime float64          `json:"processing_time"`
	Metadata       DocumentMetadata `json:"metadata"`

	// Document is the engine's structured form, handed to chunking only.
	Document *document.Document `json:"-"`
}

// ConversionSummary is the conversion part nested inside a chunking payload.
type ConversionSummary struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// Chunk is a contextualized, token-counted span of a document.
type Chunk struct {
	ID           int    `json:"chunk_id"`
	EnrichedText string `json:"enriched_text"`
	TokenCount   int    `json:"token_count"`
	Content      string `json:"content"`
	// Oversized flags an indivisible unit that exceeds the hybrid token budget.
	Oversized bool `json:"oversized,omitempty"`
}

// ChunkSet is the success payload of the chunking adapter.
type ChunkSet struct {
	Chunks         []Chunk `json:"chunks"`
	TotalChunks    int     `json:"total_chunks"`
	ProcessingTime float64 `json:"processing_time"`
}

// ChunkingData is the payload of convert-and-chunk. Partial is set when
// conversion succeeded but chunking failed.
type ChunkingData struct {
	Conversion     ConversionSummary `json:"conversion"`
	Chunks         []Chunk           `json:"chunks"`
	TotalChunks    int               `json:"total_chunks"`
	ProcessingTime float64           `json:"processing_time"`
	Partial        bool              `json:"partial,omitempty"`
}

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	ID             uuid.UUID `db:"id" json:"id"`
	RequestID      string    `db:"request_id" json:"request_id"`
	Principal      string    `db:"principal" json:"principal"`
	Operation      Operation `db:"operation" json:"operation"`
	FileName       string    `db:"file_name" json:"file_name"`
	MIMEType       string    `db:"mime_type" json:"mime_type"`
	SizeBytes      int64     `db:"size_bytes" json:"size_bytes"`
	OutputFormat   string    `db:"output_format" json:"output_format"`
	ChunkStrategy  string    `db:"chunk_strategy" json:"chunk_strategy,omitempty"`
	OCREnabled     bool      `db:"ocr_enabled" json:"ocr_enabled"`
	Status         int       `db:"status" json:"status"`
	Message        string    `db:"message" json:"message"`
	TotalChunks    int       `db:"total_chunks" json:"total_chunks"`
	PageCount      *int      `db:"page_count" json:"page_count"`
	ProcessingTime float64   `db:"processing_time" json:"processing_time"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
