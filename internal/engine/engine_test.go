package engine_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docproc/internal/config"
	"docproc/internal/document"
	"docproc/internal/domain"
	"docproc/internal/engine"
	"docproc/internal/logging"
	"docproc/internal/port"
	"docproc/mocks"
)

var allFormats = []string{"pdf", "image", "docx", "html", "pptx", "xlsx", "asciidoc", "csv", "md"}

func newFactory(builder engine.OCRBuilder) *engine.Factory {
	return engine.NewFactory(
		&config.EngineConfig{NumThreads: 2, Device: "auto", AllowedFormats: allFormats},
		&config.OCRConfig{},
		builder,
		logging.Discard(),
	)
}

func buildDefault(t *testing.T) port.DocumentEngine {
	t.Helper()
	f := newFactory(nil)
	e, err := f.Build(context.Background(), f.DefaultOptions())
	require.NoError(t, err)
	return e
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func kinds(doc *document.Document) []document.ItemKind {
	out := make([]document.ItemKind, 0, len(doc.Items))
	for _, it := range doc.Items {
		out = append(out, it.Kind)
	}
	return out
}

func TestFactory_DefaultOptions(t *testing.T) {
	opts := newFactory(nil).DefaultOptions()
	assert.False(t, opts.EnableOCR)
	assert.True(t, opts.TableStructure)
	assert.Equal(t, 2, opts.NumThreads)
	assert.Equal(t, "auto", opts.Device)
}

func TestFactory_Build_Failures(t *testing.T) {
	f := newFactory(nil)
	base := f.DefaultOptions()

	t.Run("unavailable device", func(t *testing.T) {
		opts := base
		opts.Device = "cuda"
		_, err := f.Build(context.Background(), opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cuda")
	})

	t.Run("ocr without backend endpoint", func(t *testing.T) {
		opts := base
		opts.EnableOCR = true
		opts.OCRLanguages = []string{"id"}
		_, err := f.Build(context.Background(), opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrOCRUnavailable))
	})

	t.Run("invalid language code", func(t *testing.T) {
		opts := base
		opts.EnableOCR = true
		opts.OCRLanguages = []string{"Klingon!"}
		_, err := f.Build(context.Background(), opts)
		require.Error(t, err)
	})

	t.Run("zero threads", func(t *testing.T) {
		opts := base
		opts.NumThreads = 0
		_, err := f.Build(context.Background(), opts)
		require.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Build(ctx, base)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFactory_Build_WithOCR(t *testing.T) {
	backend := new(mocks.MockOCRBackend)
	f := newFactory(func(*config.OCRConfig) (port.OCRBackend, error) { return backend, nil })
	opts := f.DefaultOptions()
	opts.EnableOCR = true
	opts.OCRLanguages = []string{"id", "en"}

	e, err := f.Build(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, e.Options().EnableOCR)
	assert.Equal(t, []string{"id", "en"}, e.Options().OCRLanguages)
}

func TestEngine_Options_IsCopy(t *testing.T) {
	e := buildDefault(t)
	opts := e.Options()
	opts.AllowedFormats[0] = "mutated"
	assert.NotEqual(t, "mutated", e.Options().AllowedFormats[0])
}

func TestEngine_Convert_Text(t *testing.T) {
	path := writeFile(t, "notes_20240101_120000.txt", []byte("Page one line one\nline two\n\fPage two text\n"))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Nil(t, doc.PageCount())
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Page one line one line two", doc.Items[0].Text)
	assert.Equal(t, "Page two text", doc.Items[1].Text)
	assert.NotEmpty(t, doc.ExportMarkdown(document.ImageEmbedded))
}

func TestEngine_Convert_Markdown(t *testing.T) {
	src := "# Title\n\nIntro **bold** text.\n\n## Section\n\n- one\n- two\n\n1. first\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\n```\ncode\n```\n"
	path := writeFile(t, "doc.md", []byte(src))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []document.ItemKind{
		document.KindHeading, document.KindParagraph, document.KindHeading,
		document.KindListItem, document.KindListItem, document.KindListItem,
		document.KindTable, document.KindCode,
	}, kinds(doc))
	assert.Equal(t, "Intro bold text.", doc.Items[1].Text)
	assert.True(t, doc.Items[5].Ordered)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, doc.Items[6].Rows)
}

func TestEngine_Convert_CSV(t *testing.T) {
	path := writeFile(t, "data.csv", []byte("name,qty\napple,3\n,\npear,5\n"))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, [][]string{{"name", "qty"}, {"apple", "3"}, {"pear", "5"}}, doc.Items[0].Rows)
}

func TestEngine_Convert_HTML(t *testing.T) {
	html := `<html><body><h1>Heading</h1><p>Some <b>text</b>.</p>
<table><thead><tr><th>K</th><th>V</th></tr></thead><tbody><tr><td>a</td><td>1</td></tr></tbody></table></body></html>`
	path := writeFile(t, "page.html", []byte(html))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(doc.Items), 3)
	assert.Equal(t, document.KindHeading, doc.Items[0].Kind)
	assert.Equal(t, "Heading", doc.Items[0].Text)
	assert.Equal(t, "Some text.", doc.Items[1].Text)
	assert.Equal(t, document.KindTable, doc.Items[2].Kind)
}

func TestEngine_Convert_AsciiDoc(t *testing.T) {
	src := "= Guide\n:toc:\n\n== Install\n\nRun the binary.\n\n* fast\n* small\n\n|===\n|a |b\n|===\n"
	path := writeFile(t, "guide.adoc", []byte(src))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []document.ItemKind{
		document.KindTitle, document.KindHeading, document.KindParagraph,
		document.KindListItem, document.KindListItem, document.KindTable,
	}, kinds(doc))
}

func TestEngine_Convert_JSON(t *testing.T) {
	path := writeFile(t, "data.json", []byte(`{"a":1}`))
	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, document.KindCode, doc.Items[0].Kind)
	assert.Contains(t, doc.Items[0].Text, `"a": 1`)
}

func zipFile(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for n, body := range files {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return writeFile(t, name, buf.Bytes())
}

const docxBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Intro</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:t>world.</w:t></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>first</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>2</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
</w:body></w:document>`

func TestEngine_Convert_DOCX(t *testing.T) {
	path := zipFile(t, "report.docx", map[string]string{"word/document.xml": docxBody})

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []document.ItemKind{
		document.KindTitle, document.KindHeading, document.KindParagraph,
		document.KindListItem, document.KindTable,
	}, kinds(doc))
	assert.Equal(t, "Hello world.", doc.Items[2].Text)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, doc.Items[4].Rows)
	assert.Nil(t, doc.PageCount())
}

func slideXML(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<p:cSld><p:spTree>
<p:sp><p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
<p:sp><p:nvSpPr><p:nvPr/></p:nvSpPr><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld></p:sld>`, title, body)
}

func TestEngine_Convert_PPTX(t *testing.T) {
	path := zipFile(t, "deck.pptx", map[string]string{
		"ppt/slides/slide2.xml":  slideXML("Second", "more"),
		"ppt/slides/slide1.xml":  slideXML("First", "hello"),
		"ppt/slides/slide10.xml": slideXML("Tenth", "last"),
	})

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, doc.PageCount())
	assert.Equal(t, 3, *doc.PageCount())
	require.Len(t, doc.Items, 6)
	assert.Equal(t, "First", doc.Items[0].Text)
	assert.Equal(t, document.KindHeading, doc.Items[0].Kind)
	assert.Equal(t, 1, doc.Items[0].Page)
	assert.Equal(t, "Second", doc.Items[2].Text)
	assert.Equal(t, "Tenth", doc.Items[4].Text)
	assert.Equal(t, 3, doc.Items[5].Page)
}

func TestEngine_Convert_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Qty"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"apple", 3}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Sheet1", doc.Items[0].Text)
	assert.Equal(t, [][]string{{"Name", "Qty"}, {"apple", "3"}}, doc.Items[1].Rows)
}

// buildPDF writes a minimal PDF with one text line per page.
func buildPDF(pages []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	n := 2 + 2*len(pages) + 1
	offsets := make([]int, n+1)
	fontObj := n
	write := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	write(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	for i, text := range pages {
		pageNum := 3 + 2*i
		stream := fmt.Sprintf("BT\n/F1 12 Tf\n72 720 Td\n(%s) Tj\nET\n", text)
		write(pageNum, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, pageNum+1))
		write(pageNum+1, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}
	write(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", n+1)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", n+1, xref)
	return buf.Bytes()
}

func TestEngine_Convert_PDF(t *testing.T) {
	path := writeFile(t, "two.pdf", buildPDF([]string{"First page text.", "Second page text."}))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, doc.PageCount())
	assert.Equal(t, 2, *doc.PageCount())
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "First page text.", doc.Items[0].Text)
	assert.Equal(t, 1, doc.Items[0].Page)
	assert.Equal(t, 2, doc.Items[1].Page)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEngine_Convert_ImageWithoutOCR(t *testing.T) {
	path := writeFile(t, "scan.png", pngBytes(t))

	doc, err := buildDefault(t).Convert(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, document.KindPicture, doc.Items[0].Kind)
	assert.Equal(t, "image/png", doc.Items[0].Image.MIMEType)
	assert.Equal(t, 1, *doc.PageCount())
	assert.Contains(t, doc.ExportMarkdown(document.ImageEmbedded), "data:image/png;base64,")
}

func TestEngine_Convert_ImageWithOCR(t *testing.T) {
	backend := new(mocks.MockOCRBackend)
	backend.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.OCRInput) bool {
		return in.MIMEType == "image/png" && len(in.Languages) == 1 && in.Languages[0] == "id"
	})).Return(&port.OCROutput{Pages: []string{"# Receipt\n\nTotal 10"}}, nil)

	f := newFactory(func(*config.OCRConfig) (port.OCRBackend, error) { return backend, nil })
	opts := f.DefaultOptions()
	opts.EnableOCR = true
	opts.OCRLanguages = []string{"id"}
	e, err := f.Build(context.Background(), opts)
	require.NoError(t, err)

	doc, err := e.Convert(context.Background(), writeFile(t, "scan.png", pngBytes(t)))
	require.NoError(t, err)

	assert.Equal(t, []document.ItemKind{document.KindPicture, document.KindHeading, document.KindParagraph}, kinds(doc))
	assert.Equal(t, "Total 10", doc.Items[2].Text)
	backend.AssertExpectations(t)
}

func TestEngine_Convert_ImageOCRFailure(t *testing.T) {
	backend := new(mocks.MockOCRBackend)
	backend.On("Recognize", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	f := newFactory(func(*config.OCRConfig) (port.OCRBackend, error) { return backend, nil })
	opts := f.DefaultOptions()
	opts.EnableOCR = true
	opts.OCRLanguages = []string{"en"}
	e, err := f.Build(context.Background(), opts)
	require.NoError(t, err)

	_, err = e.Convert(context.Background(), writeFile(t, "scan.png", pngBytes(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEngine_Convert_Unsupported(t *testing.T) {
	path := writeFile(t, "tool.exe", []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"))

	_, err := buildDefault(t).Convert(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestEngine_Convert_FormatNotEnabled(t *testing.T) {
	f := engine.NewFactory(
		&config.EngineConfig{NumThreads: 1, Device: "cpu", AllowedFormats: []string{"pdf"}},
		&config.OCRConfig{}, nil, logging.Discard(),
	)
	e, err := f.Build(context.Background(), f.DefaultOptions())
	require.NoError(t, err)

	_, err = e.Convert(context.Background(), writeFile(t, "a.csv", []byte("a,b\n")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestEngine_Convert_MissingFile(t *testing.T) {
	_, err := buildDefault(t).Convert(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestEngine_Convert_NoTableStructure(t *testing.T) {
	f := newFactory(nil)
	opts := f.DefaultOptions()
	opts.TableStructure = false
	e, err := f.Build(context.Background(), opts)
	require.NoError(t, err)

	doc, err := e.Convert(context.Background(), writeFile(t, "d.csv", []byte("a,b\nc,d\n")))
	require.NoError(t, err)
	assert.Equal(t, []document.ItemKind{document.KindParagraph, document.KindParagraph}, kinds(doc))
	assert.Equal(t, "a b", doc.Items[0].Text)
}

func TestFormatForMIME(t *testing.T) {
	f, ok := engine.FormatForMIME("image/tiff")
	assert.True(t, ok)
	assert.Equal(t, engine.FormatImage, f)

	f, ok = engine.FormatForMIME("text/plain; charset=utf-8")
	assert.True(t, ok)
	assert.Equal(t, engine.FormatText, f)

	_, ok = engine.FormatForMIME("application/x-msdownload")
	assert.False(t, ok)
}

func TestFormatForExtension(t *testing.T) {
	f, ok := engine.FormatForExtension("PDF")
	assert.True(t, ok)
	assert.Equal(t, engine.FormatPDF, f)

	_, ok = engine.FormatForExtension(".exe")
	assert.False(t, ok)
}
