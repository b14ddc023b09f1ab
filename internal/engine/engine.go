// Package engine is the in-process document conversion engine. It parses
// PDF, office, web, text and image inputs into a document.Document.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"docproc/internal/config"
	"docproc/internal/document"
	"docproc/internal/domain"
	"docproc/internal/ocr"
	"docproc/internal/port"
)

// OCRBuilder creates the OCR backend for an engine that has OCR enabled.
type OCRBuilder func(cfg *config.OCRConfig) (port.OCRBackend, error)

// DefaultOCRBuilder builds the HTTP OCR client.
func DefaultOCRBuilder(cfg *config.OCRConfig) (port.OCRBackend, error) {
	return ocr.NewClient(cfg)
}

// Factory implements port.EngineFactory.
type Factory struct {
	engineCfg config.EngineConfig
	ocrCfg    config.OCRConfig
	newOCR    OCRBuilder
	logger    *slog.Logger
}

// NewFactory creates an engine factory. A nil builder uses DefaultOCRBuilder.
func NewFactory(engineCfg *config.EngineConfig, ocrCfg *config.OCRConfig, newOCR OCRBuilder, logger *slog.Logger) *Factory {
	if newOCR == nil {
		newOCR = DefaultOCRBuilder
	}
	return &Factory{
		engineCfg: *engineCfg,
		ocrCfg:    *ocrCfg,
		newOCR:    newOCR,
		logger:    logger.With("component", "engine"),
	}
}

// DefaultOptions is OCR off with table structure on and the configured
// thread budget and device.
func (f *Factory) DefaultOptions() port.EngineOptions {
	return port.EngineOptions{
		EnableOCR:      false,
		TableStructure: true,
		NumThreads:     f.engineCfg.NumThreads,
		Device:         f.engineCfg.Device,
		AllowedFormats: append([]string(nil), f.engineCfg.AllowedFormats...),
	}
}

// Build validates opts and returns an immutable engine.
func (f *Factory) Build(ctx context.Context, opts port.EngineOptions) (port.DocumentEngine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.NumThreads <= 0 {
		return nil, fmt.Errorf("num_threads must be positive, got %d", opts.NumThreads)
	}
	switch strings.ToLower(opts.Device) {
	case "", "auto", "cpu":
	default:
		return nil, fmt.Errorf("accelerator device %q not available", opts.Device)
	}

	allowed := make(map[Format]bool, len(opts.AllowedFormats))
	for _, name := range opts.AllowedFormats {
		allowed[Format(strings.ToLower(strings.TrimSpace(name)))] = true
	}
	// Plain text inputs ride on the markdown pipeline.
	if allowed[FormatMarkdown] {
		allowed[FormatText] = true
		allowed[FormatJSON] = true
		allowed[FormatXML] = true
	}

	e := &Engine{
		opts:    cloneOptions(opts),
		allowed: allowed,
		logger:  f.logger,
	}

	if opts.EnableOCR {
		if len(opts.OCRLanguages) == 0 {
			return nil, errors.New("ocr enabled without languages")
		}
		if err := ocr.ValidateLanguages(opts.OCRLanguages); err != nil {
			return nil, err
		}
		backend, err := f.newOCR(&f.ocrCfg)
		if err != nil {
			return nil, fmt.Errorf("building OCR backend: %w", err)
		}
		e.ocr = backend
	}

	f.logger.Debug("engine built",
		"ocr", opts.EnableOCR,
		"languages", opts.OCRLanguages,
		"threads", opts.NumThreads,
		"device", opts.Device,
	)
	return e, nil
}

func cloneOptions(o port.EngineOptions) port.EngineOptions {
	o.OCRLanguages = append([]string(nil), o.OCRLanguages...)
	o.AllowedFormats = append([]string(nil), o.AllowedFormats...)
	return o
}

// Engine implements port.DocumentEngine. It holds no mutable state.
type Engine struct {
	opts    port.EngineOptions
	allowed map[Format]bool
	ocr     port.OCRBackend
	logger  *slog.Logger
}

// Options returns a copy of the engine's construction options.
func (e *Engine) Options() port.EngineOptions {
	return cloneOptions(e.opts)
}

// Convert parses the file at path.
func (e *Engine) Convert(ctx context.Context, path string) (*document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	format, sniffed, err := detectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("detecting format: %w", err)
	}
	if format == "" {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFormat, filepath.Ext(path), sniffed)
	}
	if !e.allowed[format] {
		return nil, fmt.Errorf("%w: %s is not enabled", domain.ErrUnsupportedFormat, format)
	}

	e.logger.Debug("converting document", "path", path, "format", format)

	doc := &document.Document{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Format: string(format),
	}

	switch format {
	case FormatPDF:
		err = e.parsePDF(ctx, path, doc)
	case FormatImage:
		err = e.parseImage(ctx, path, doc)
	case FormatDOCX:
		err = parseDOCX(path, doc)
	case FormatPPTX:
		err = e.parsePPTX(ctx, path, doc)
	case FormatXLSX:
		err = parseXLSX(path, doc)
	case FormatHTML:
		err = parseHTMLFile(path, doc)
	case FormatMarkdown:
		err = parseMarkdownFile(path, doc)
	case FormatAsciiDoc:
		err = parseAsciiDocFile(path, doc)
	case FormatCSV:
		err = parseCSVFile(path, doc)
	case FormatText:
		err = parseTextFile(path, doc)
	case FormatJSON:
		err = parseJSONFile(path, doc)
	case FormatXML:
		err = parseXMLFile(path, doc)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s (%s): %w", filepath.Base(path), format, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !e.opts.TableStructure {
		flattenTables(doc)
	}
	return doc, nil
}

// flattenTables turns tables into paragraphs, one per row.
func flattenTables(doc *document.Document) {
	items := doc.Items
	doc.Items = make([]document.Item, 0, len(items))
	for _, it := range items {
		if it.Kind != document.KindTable {
			doc.Items = append(doc.Items, it)
			continue
		}
		for _, row := range it.Rows {
			doc.Add(document.Item{
				Kind: document.KindParagraph,
				Text: strings.TrimSpace(strings.Join(row, " ")),
				Page: it.Page,
			})
		}
	}
}
