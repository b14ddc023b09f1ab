package document_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docproc/internal/document"
)

func sample() *document.Document {
	d := &document.Document{Name: "report"}
	d.Add(document.Item{Kind: document.KindTitle, Text: "Report"})
	d.Add(document.Item{Kind: document.KindHeading, Level: 2, Text: "Intro"})
	d.Add(document.Item{Kind: document.KindParagraph, Text: "Hello <world> & co."})
	d.Add(document.Item{Kind: document.KindListItem, Ordered: true, Text: "one"})
	d.Add(document.Item{Kind: document.KindListItem, Ordered: true, Text: "two"})
	d.Add(document.Item{Kind: document.KindTable, Rows: [][]string{{"A", "B|C"}, {"1"}}})
	d.Add(document.Item{Kind: document.KindPicture, Image: &document.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}}})
	return d
}

func TestAdd_SkipsEmpty(t *testing.T) {
	d := &document.Document{}
	d.Add(document.Item{Kind: document.KindParagraph})
	d.Add(document.Item{Kind: document.KindTable})
	d.Add(document.Item{Kind: document.KindPicture})
	assert.Empty(t, d.Items)
}

func TestPageCount(t *testing.T) {
	d := &document.Document{Pages: 3}
	assert.Nil(t, d.PageCount())

	d.Paginated = true
	assert.Equal(t, 3, *d.PageCount())

	var nilDoc *document.Document
	assert.Nil(t, nilDoc.PageCount())
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, document.Item{Kind: document.KindTitle, Level: 4}.HeadingLevel())
	assert.Equal(t, 1, document.Item{Kind: document.KindHeading}.HeadingLevel())
	assert.Equal(t, 6, document.Item{Kind: document.KindHeading, Level: 9}.HeadingLevel())
}

func TestExportMarkdown_Embedded(t *testing.T) {
	md := sample().ExportMarkdown(document.ImageEmbedded)

	assert.True(t, strings.HasPrefix(md, "# Report\n\n## Intro\n\nHello <world> & co.\n\n1. one\n2. two\n\n"))
	assert.Contains(t, md, "| A | B\\|C |\n|---|---|\n| 1 |  |")
	assert.Contains(t, md, "![Image](data:image/png;base64,AQID)")
}

func TestExportMarkdown_Placeholder(t *testing.T) {
	md := sample().ExportMarkdown(document.ImagePlaceholder)
	assert.Contains(t, md, "<!-- image -->")
	assert.NotContains(t, md, "base64")
}

func TestExportMarkdown_Deterministic(t *testing.T) {
	d := sample()
	assert.Equal(t, d.ExportMarkdown(document.ImageEmbedded), d.ExportMarkdown(document.ImageEmbedded))
}

func TestExportText(t *testing.T) {
	txt := sample().ExportText()
	assert.Equal(t, "Report\n\nIntro\n\nHello <world> & co.\n\none\n\ntwo\n\nA\tB|C\n1", txt)
}

func TestExportHTML(t *testing.T) {
	h := sample().ExportHTML()

	assert.True(t, strings.HasPrefix(h, "<!DOCTYPE html>"))
	assert.Contains(t, h, "<title>report</title>")
	assert.Contains(t, h, "<h1>Report</h1>")
	assert.Contains(t, h, "<h2>Intro</h2>")
	assert.Contains(t, h, "Hello &lt;world&gt; &amp; co.")
	assert.Contains(t, h, "<ol>")
	assert.Contains(t, h, "<th>A</th>")
	assert.Contains(t, h, "data:image/png;base64,AQID")
}

func TestExportHTML_StripsScript(t *testing.T) {
	d := &document.Document{Name: "x"}
	d.Add(document.Item{
		Kind:  document.KindPicture,
		Text:  `caption`,
		Image: &document.Image{MIMEType: `image/png" onerror="alert(1)`, Data: []byte{1}},
	})
	h := d.ExportHTML()
	assert.NotContains(t, h, `onerror="`)
}
