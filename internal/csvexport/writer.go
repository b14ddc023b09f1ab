package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docproc/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"ID",
	"Request ID",
	"Principal",
	"Operation",
	"File Name",
	"MIME Type",
	"Size Bytes",
	"Output Format",
	"Chunk Strategy",
	"OCR Enabled",
	"Status",
	"Message",
	"Total Chunks",
	"Page Count",
	"Processing Time",
	"Created At",
}

// Writer wraps csv.Writer for exporting conversion history as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecords converts a batch of history rows to CSV rows and writes them.
func (w *Writer) WriteRecords(recs []domain.ConversionRecord) error {
	for i := range recs {
		if err := w.csv.Write(recordToRow(&recs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func recordToRow(rec *domain.ConversionRecord) []string {
	pageCount := ""
	if rec.PageCount != nil {
		pageCount = strconv.Itoa(*rec.PageCount)
	}
	return []string{
		rec.ID.String(),
		rec.RequestID,
		rec.Principal,
		string(rec.Operation),
		rec.FileName,
		rec.MIMEType,
		strconv.FormatInt(rec.SizeBytes, 10),
		rec.OutputFormat,
		rec.ChunkStrategy,
		formatBool(rec.OCREnabled),
		strconv.Itoa(rec.Status),
		rec.Message,
		strconv.Itoa(rec.TotalChunks),
		pageCount,
		strconv.FormatFloat(rec.ProcessingTime, 'f', 2, 64),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "export"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.csv.
func BuildFilename(name string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", SanitizeFilename(name), now.Format("2006-01-02"))
}
