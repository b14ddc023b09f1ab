package chunking

import (
	"context"
	"strings"

	"docproc/internal/document"
)

// HierarchicalChunker emits one chunk per structural element. Consecutive
// list items form a single chunk. Headings are carried as context and never
// become chunks of their own.
type HierarchicalChunker struct{}

func (HierarchicalChunker) Chunk(ctx context.Context, doc *document.Document) ([]Chunk, error) {
	var (
		chunks []Chunk
		path   headingPath
		list   *Chunk
	)
	flushList := func() {
		if list != nil {
			chunks = append(chunks, *list)
			list = nil
		}
	}

	for _, it := range doc.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if it.IsHeading() {
			flushList()
			path.push(it)
			continue
		}

		text := strings.TrimSpace(itemText(it))
		if text == "" {
			continue
		}

		if it.Kind == document.KindListItem {
			if list == nil {
				list = &Chunk{Headings: path.current()}
				list.Text = text
			} else {
				list.Text += "\n" + text
			}
			list.Pages = appendPage(list.Pages, it.Page)
			continue
		}

		flushList()
		chunks = append(chunks, Chunk{
			Text:     text,
			Headings: path.current(),
			Pages:    appendPage(nil, it.Page),
		})
	}
	flushList()
	return chunks, nil
}
