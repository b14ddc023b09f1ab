package port

import "context"

// OCRInput is a single image or scanned document to recognize.
type OCRInput struct {
	Data      []byte
	MIMEType  string
	Languages []string
}

// OCROutput holds recognized markdown, one entry per page.
type OCROutput struct {
	Pages []string
	Model string
}

// OCRBackend recognizes text in images.
type OCRBackend interface {
	Recognize(ctx context.Context, input OCRInput) (*OCROutput, error)
}
