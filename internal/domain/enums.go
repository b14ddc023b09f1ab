package domain

import (
	"fmt"
	"strings"
)

// OutputFormat selects the renderer used for converted content.
type OutputFormat string

const (
	OutputPlaintext OutputFormat = "plaintext"
	OutputMarkdown  OutputFormat = "markdown"
	OutputHTML      OutputFormat = "html"
)

// ParseOutputFormat validates a form value. An empty value selects markdown.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputMarkdown:
		return OutputMarkdown, nil
	case OutputPlaintext:
		return OutputPlaintext, nil
	case OutputHTML:
		return OutputHTML, nil
	default:
		return "", fmt.Errorf("%w: output_type %q (allowed: plaintext, markdown, html)", ErrInvalidOption, s)
	}
}

// ChunkStrategy selects how a structured document is split.
type ChunkStrategy string

const (
	ChunkHierarchical ChunkStrategy = "hierarchical"
	ChunkHybrid       ChunkStrategy = "hybrid"
	ChunkPage         ChunkStrategy = "page"
)

// ParseChunkStrategy validates a form value, falling back to def when empty.
func ParseChunkStrategy(s string, def ChunkStrategy) (ChunkStrategy, error) {
	switch ChunkStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case ChunkHierarchical:
		return ChunkHierarchical, nil
	case ChunkHybrid:
		return ChunkHybrid, nil
	case ChunkPage:
		return ChunkPage, nil
	default:
		return "", fmt.Errorf("%w: chunk_type %q (allowed: hierarchical, hybrid, page)", ErrInvalidOption, s)
	}
}

// Operation names an orchestrated request kind, as recorded in history.
type Operation string

const (
	OperationConvert         Operation = "convert"
	OperationConvertAndChunk Operation = "convert_n_chunk"
)

// Envelope status codes. Zero is success; everything else is a failure class.
const (
	StatusOK           = 0
	StatusInvalidInput = 1
	StatusUnauthorized = 2
	StatusStorage      = 3
	StatusProcessing   = 4
	StatusInternal     = 5
)

var truthy = map[string]bool{"true": true, "1": true, "yes": true, "on": true, "y": true}

// ParseBoolFlag interprets HTML-form style booleans ("true", "1", "yes", "on", "y").
// Anything else, including an empty string, is false.
func ParseBoolFlag(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// ParseLanguages splits a comma-separated language list, trimming blanks.
// Order is preserved and duplicates are dropped.
func ParseLanguages(s string) []string {
	var langs []string
	seen := make(map[string]bool)
	for _, l := range strings.Split(s, ",") {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		langs = append(langs, l)
	}
	return langs
}
