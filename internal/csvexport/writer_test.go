package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/domain"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	assert.Len(t, row, 16)
	assert.Equal(t, "ID", row[0])
	assert.Equal(t, "Operation", row[3])
	assert.Equal(t, "Created At", row[15])
}

func TestWriteRecords(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	pages := 3
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	recs := []domain.ConversionRecord{
		{
			ID:             id,
			RequestID:      "req-1",
			Principal:      "authenticated-user",
			Operation:      domain.OperationConvertAndChunk,
			FileName:       "report, final.pdf",
			MIMEType:       "application/pdf",
			SizeBytes:      2048,
			OutputFormat:   "markdown",
			ChunkStrategy:  "hybrid",
			OCREnabled:     true,
			Status:         0,
			Message:        "Document converted and chunked successfully",
			TotalChunks:    12,
			PageCount:      &pages,
			ProcessingTime: 1.234,
			CreatedAt:      created,
		},
		{
			ID:        uuid.New(),
			Operation: domain.OperationConvert,
			FileName:  "notes.txt",
			Status:    1,
			CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecords(recs))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"550e8400-e29b-41d4-a716-446655440000",
		"req-1",
		"authenticated-user",
		"convert_n_chunk",
		"report, final.pdf",
		"application/pdf",
		"2048",
		"markdown",
		"hybrid",
		"Yes",
		"0",
		"Document converted and chunked successfully",
		"12",
		"3",
		"1.23",
		"2026-03-04T05:06:07Z",
	}, rows[0])

	assert.Equal(t, "No", rows[1][9])
	assert.Equal(t, "1", rows[1][10])
	assert.Equal(t, "", rows[1][13], "unpaginated sources leave page count empty")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Conversion History", "Conversion_History"},
		{"special chars", "FY 2024-25 / Q3 (Oct–Dec)", "FY_2024-25_Q3_Oct_Dec"},
		{"hyphens and underscores preserved", "my-export_2025", "my-export_2025"},
		{"consecutive underscores collapsed", "test___export", "test_export"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{"empty", "", "export"},
		{"only symbols", "***", "export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2026, 1, 2, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "conversions_2026-01-02.csv", BuildFilename("conversions", now))
}
