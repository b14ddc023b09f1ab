package engine

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is an input family the engine can parse.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatImage    Format = "image"
	FormatDOCX     Format = "docx"
	FormatPPTX     Format = "pptx"
	FormatXLSX     Format = "xlsx"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatAsciiDoc Format = "asciidoc"
	FormatCSV      Format = "csv"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
	FormatXML      Format = "xml"
)

var extFormats = map[string]Format{
	".pdf":      FormatPDF,
	".png":      FormatImage,
	".jpg":      FormatImage,
	".jpeg":     FormatImage,
	".gif":      FormatImage,
	".bmp":      FormatImage,
	".tif":      FormatImage,
	".tiff":     FormatImage,
	".webp":     FormatImage,
	".docx":     FormatDOCX,
	".pptx":     FormatPPTX,
	".xlsx":     FormatXLSX,
	".xlsm":     FormatXLSX,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".xhtml":    FormatHTML,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".adoc":     FormatAsciiDoc,
	".asciidoc": FormatAsciiDoc,
	".asc":      FormatAsciiDoc,
	".csv":      FormatCSV,
	".txt":      FormatText,
	".text":     FormatText,
	".json":     FormatJSON,
	".xml":      FormatXML,
}

var mimeFormats = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FormatDOCX,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FormatPPTX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         FormatXLSX,
	"text/html":        FormatHTML,
	"text/markdown":    FormatMarkdown,
	"text/csv":         FormatCSV,
	"text/plain":       FormatText,
	"application/json": FormatJSON,
	"application/xml":  FormatXML,
	"text/xml":         FormatXML,
}

// FormatForExtension maps a file extension (with or without the dot) to a format.
func FormatForExtension(ext string) (Format, bool) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, ok := extFormats[ext]
	return f, ok
}

// FormatForMIME maps a content type to a format. Any image/* type is an image.
func FormatForMIME(mime string) (Format, bool) {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))
	if strings.HasPrefix(mime, "image/") {
		return FormatImage, true
	}
	f, ok := mimeFormats[mime]
	return f, ok
}

// detectFormat uses the extension first and falls back to content sniffing.
func detectFormat(path string) (Format, string, error) {
	if f, ok := FormatForExtension(filepath.Ext(path)); ok {
		return f, "", nil
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", err
	}
	// Office files sniff as their zip container subtype; walk up the parent chain.
	for cur := m; cur != nil; cur = cur.Parent() {
		if f, ok := FormatForMIME(cur.String()); ok {
			return f, cur.String(), nil
		}
	}
	return "", m.String(), nil
}
