// Package chunking splits a structured document into contextualized chunks.
package chunking

import (
	"context"
	"fmt"
	"strings"

	"docproc/internal/document"
	"docproc/internal/domain"
)

// Chunk is a span of document text together with its heading path.
type Chunk struct {
	Text     string
	Headings []string
	// Pages lists the source pages the chunk covers, in order.
	Pages []int
	// Oversized marks an indivisible unit that exceeds the token budget.
	Oversized bool
}

// Contextualize prepends the heading path to the chunk text, one per line.
func Contextualize(c Chunk) string {
	if len(c.Headings) == 0 {
		return c.Text
	}
	parts := make([]string, 0, len(c.Headings)+1)
	parts = append(parts, c.Headings...)
	parts = append(parts, c.Text)
	return strings.Join(parts, "\n")
}

// Chunker splits a document into chunks in reading order.
type Chunker interface {
	Chunk(ctx context.Context, doc *document.Document) ([]Chunk, error)
}

// New returns the chunker for strategy. The tokenizer and budget are only
// used by the hybrid strategy.
func New(strategy domain.ChunkStrategy, tok Tokenizer, maxTokens int) (Chunker, error) {
	switch strategy {
	case domain.ChunkPage:
		return PageChunker{}, nil
	case domain.ChunkHierarchical:
		return HierarchicalChunker{}, nil
	case domain.ChunkHybrid:
		if tok == nil {
			return nil, fmt.Errorf("hybrid chunking requires a tokenizer")
		}
		if maxTokens <= 0 {
			return nil, fmt.Errorf("%w: max_tokens must be positive, got %d", domain.ErrInvalidOption, maxTokens)
		}
		return &HybridChunker{Tokenizer: tok, MaxTokens: maxTokens}, nil
	default:
		return nil, fmt.Errorf("%w: chunk strategy %q", domain.ErrInvalidOption, strategy)
	}
}

// itemText is the chunk serialization of a single item.
func itemText(it document.Item) string {
	switch it.Kind {
	case document.KindTable:
		rows := make([]string, 0, len(it.Rows))
		for _, r := range it.Rows {
			rows = append(rows, strings.Join(r, " | "))
		}
		return strings.Join(rows, "\n")
	case document.KindListItem:
		return "- " + it.Text
	default:
		return it.Text
	}
}

// headingPath tracks the active heading at each level.
type headingPath struct {
	levels []string
}

func (h *headingPath) push(it document.Item) {
	lvl := it.HeadingLevel()
	if len(h.levels) >= lvl {
		h.levels = h.levels[:lvl-1]
	}
	for len(h.levels) < lvl-1 {
		h.levels = append(h.levels, "")
	}
	h.levels = append(h.levels, it.Text)
}

func (h *headingPath) current() []string {
	out := make([]string, 0, len(h.levels))
	for _, l := range h.levels {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func appendPage(pages []int, p int) []int {
	if p <= 0 {
		return pages
	}
	if len(pages) > 0 && pages[len(pages)-1] == p {
		return pages
	}
	return append(pages, p)
}

func equalHeadings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
