package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"docproc/internal/document"
	"docproc/internal/port"
)

// parseImage keeps the picture and, with OCR on, appends the recognized text.
// An image counts as a single page.
func (e *Engine) parseImage(ctx context.Context, path string, doc *document.Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mime := baseMIME(mimetype.Detect(data).String())

	doc.Paginated = true
	doc.Pages = 1
	doc.Add(document.Item{
		Kind:  document.KindPicture,
		Page:  1,
		Image: &document.Image{MIMEType: mime, Data: data},
	})

	if e.ocr == nil {
		return nil
	}
	out, err := e.ocr.Recognize(ctx, port.OCRInput{
		Data:      data,
		MIMEType:  mime,
		Languages: e.opts.OCRLanguages,
	})
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	for _, page := range out.Pages {
		for _, it := range parseMarkdown(page) {
			it.Page = 1
			doc.Add(it)
		}
	}
	return nil
}
