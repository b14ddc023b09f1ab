package chunking

import (
	"context"
	"strings"

	"docproc/internal/document"
)

// PageChunker emits one chunk per source page. Documents without pagination
// become a single chunk.
type PageChunker struct{}

func (PageChunker) Chunk(ctx context.Context, doc *document.Document) ([]Chunk, error) {
	var chunks []Chunk
	var cur []string
	curPage := -1

	flush := func() {
		if len(cur) > 0 {
			c := Chunk{Text: strings.Join(cur, "\n")}
			c.Pages = appendPage(nil, curPage)
			chunks = append(chunks, c)
		}
		cur = nil
	}

	for _, it := range doc.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if it.Page != curPage {
			flush()
			curPage = it.Page
		}
		if text := strings.TrimSpace(itemText(it)); text != "" {
			cur = append(cur, text)
		}
	}
	flush()
	return chunks, nil
}
