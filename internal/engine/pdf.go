package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"docproc/internal/document"
	"docproc/internal/port"
)

// minCharsPerPage below which a PDF is treated as scanned and sent to OCR.
const minCharsPerPage = 16

func (e *Engine) parsePDF(ctx context.Context, path string, doc *document.Document) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return fmt.Errorf("pdfcpu read: %w", err)
	}

	doc.Paginated = true
	doc.Pages = pdfCtx.PageCount

	totalChars := 0
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, para := range pdfPageParagraphs(pdfCtx, pageNr) {
			totalChars += len([]rune(para))
			doc.Add(document.Item{Kind: document.KindParagraph, Text: para, Page: pageNr})
		}
	}

	if e.ocr != nil && totalChars < minCharsPerPage*max(1, pdfCtx.PageCount) {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out, err := e.ocr.Recognize(ctx, port.OCRInput{
			Data:      data,
			MIMEType:  "application/pdf",
			Languages: e.opts.OCRLanguages,
		})
		if err != nil {
			return fmt.Errorf("ocr: %w", err)
		}
		doc.Items = nil
		for i, page := range out.Pages {
			for _, it := range parseMarkdown(page) {
				it.Page = i + 1
				doc.Add(it)
			}
		}
		if len(out.Pages) > doc.Pages {
			doc.Pages = len(out.Pages)
		}
	}
	return nil
}

func pdfPageParagraphs(ctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return groupLines(extractTextFromStream(data))
}

// groupLines joins wrapped lines into paragraphs. A paragraph ends at a blank
// line or after a line that ends a sentence.
func groupLines(text string) []string {
	var paras []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			paras = append(paras, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = collapseSpaces(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
		if strings.ContainsRune(".:!?", rune(line[len(line)-1])) {
			flush()
		}
	}
	flush()
	return paras
}

var (
	pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	tdRe        = regexp.MustCompile(`(-?[\d.]+)\s+(-?[\d.]+)\s+T[dD]$`)
)

// extractTextFromStream reads text-showing operators from a content stream.
// Vertical moves become newlines and horizontal moves become spaces.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if m := tdRe.FindSubmatch(line); m != nil {
				if y, err := strconv.ParseFloat(string(m[2]), 64); err == nil && y != 0 {
					sb.WriteByte('\n')
					continue
				}
			}
			sb.WriteByte(' ')
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// decodePDFString handles PDF literal string escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			val := int(raw[i] - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// collapseSpaces trims and squeezes whitespace and drops non-printable runes.
func collapseSpaces(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
