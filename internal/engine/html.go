package engine

import (
	"fmt"
	"os"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"docproc/internal/document"
)

// mdConverter is safe for concurrent use once built.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// parseHTMLFile converts HTML to markdown and parses the markdown.
func parseHTMLFile(path string, doc *document.Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseHTML(string(data), doc)
}

func parseHTML(html string, doc *document.Document) error {
	md, err := mdConverter.ConvertString(html)
	if err != nil {
		return fmt.Errorf("html to markdown: %w", err)
	}
	for _, it := range parseMarkdown(md) {
		doc.Add(it)
	}
	return nil
}
