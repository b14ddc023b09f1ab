package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"docproc/internal/document"
	"docproc/internal/domain"
	"docproc/internal/logging"
	"docproc/internal/port"
	"docproc/internal/worker"
)

// InitMode reports how an engine was obtained for a request.
type InitMode string

const (
	InitReady    InitMode = "ready"
	InitFallback InitMode = "fallback"
	InitFailed   InitMode = "failed"
)

// Initialization is the outcome of Converter.Initialize. Engine is nil only
// when Mode is InitFailed.
type Initialization struct {
	Mode   InitMode
	Engine port.DocumentEngine
	Err    error
}

// DefaultMaxPooledEngines is used when NewConverter is given a non-positive cap.
const DefaultMaxPooledEngines = 8

// Converter owns document engines and runs conversions on the worker pool.
// Engines are immutable and pooled by configuration key; construction is
// serialized so no engine ever sees a mix of two requests' options. The pool
// holds at most maxPooled engines and evicts the least recently used one.
type Converter struct {
	factory port.EngineFactory
	pool    *worker.Pool
	logger  *slog.Logger

	buildMu sync.Mutex
	group   singleflight.Group

	engines *lru.Cache[string, port.DocumentEngine]
	latest  atomic.Pointer[engineRef]
}

type engineRef struct{ engine port.DocumentEngine }

// NewConverter creates a Converter with an empty engine pool holding at most
// maxPooled engines.
func NewConverter(factory port.EngineFactory, pool *worker.Pool, maxPooled int, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPooled <= 0 {
		maxPooled = DefaultMaxPooledEngines
	}
	c := &Converter{
		factory: factory,
		pool:    pool,
		logger:  logger.With("component", "converter"),
	}
	// lru.NewWithEvict only fails for a non-positive size.
	c.engines, _ = lru.NewWithEvict(maxPooled, func(key string, _ port.DocumentEngine) {
		c.logger.Info("engine evicted", "engine_key", key)
	})
	return c
}

// Healthy reports whether any engine has been built.
func (c *Converter) Healthy() bool {
	return c.latest.Load() != nil
}

// EngineCount returns the number of pooled engines.
func (c *Converter) EngineCount() int {
	return c.engines.Len()
}

// Initialize returns an engine for the requested OCR settings. If that
// configuration cannot be built it retries once with the factory defaults.
// It never returns an error; failures are reported through the mode.
func (c *Converter) Initialize(ctx context.Context, enableOCR bool, languages []string) Initialization {
	logger := logging.FromContext(ctx).With("component", "converter")

	opts := c.factory.DefaultOptions()
	opts.EnableOCR = enableOCR
	opts.OCRLanguages = nil
	if enableOCR {
		opts.OCRLanguages = append([]string(nil), languages...)
	}

	logger.Info("initializing converter", "enable_ocr", enableOCR, "ocr_languages", opts.OCRLanguages)
	eng, err := c.ensure(ctx, opts)
	if err == nil {
		logger.Debug("converter ready", "engine_key", opts.Key())
		return Initialization{Mode: InitReady, Engine: eng}
	}
	logger.Error("failed to initialize converter with requested options", "error", err)

	fallback := c.factory.DefaultOptions()
	eng, fbErr := c.ensure(ctx, fallback)
	if fbErr == nil {
		logger.Warn("converter initialized with default settings", "engine_key", fallback.Key(), "cause", err)
		return Initialization{Mode: InitFallback, Engine: eng, Err: err}
	}

	logger.Error("fallback initialization failed", "error", fbErr)
	return Initialization{Mode: InitFailed, Err: errors.Join(err, fbErr)}
}

// ensure returns the pooled engine for opts, building it if needed. Concurrent
// callers for the same key share one build. Builds for different keys run one
// at a time.
func (c *Converter) ensure(ctx context.Context, opts port.EngineOptions) (port.DocumentEngine, error) {
	key := opts.Key()
	if eng := c.lookup(key); eng != nil {
		return eng, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		c.buildMu.Lock()
		defer c.buildMu.Unlock()

		if eng := c.lookup(key); eng != nil {
			return eng, nil
		}
		buildCtx := context.WithoutCancel(ctx)
		eng, err := worker.Run(buildCtx, c.pool, func(ctx context.Context) (port.DocumentEngine, error) {
			return c.factory.Build(ctx, opts)
		})
		if err != nil {
			return nil, err
		}
		c.publish(key, eng)
		return eng, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(port.DocumentEngine), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Converter) lookup(key string) port.DocumentEngine {
	eng, _ := c.engines.Get(key)
	return eng
}

func (c *Converter) publish(key string, eng port.DocumentEngine) {
	c.engines.Add(key, eng)
	c.latest.Store(&engineRef{engine: eng})
	c.logger.Info("engine built", "engine_key", key)
}

// Convert renders the file at path with eng. Engine errors and panics become
// a failure envelope with status 4. On success the payload is a
// *domain.ConversionData that still carries the structured document.
func (c *Converter) Convert(ctx context.Context, eng port.DocumentEngine, path string, format domain.OutputFormat) domain.Result {
	logger := logging.FromContext(ctx).With("component", "converter")
	logger.Info("starting document conversion", "file_path", path, "output_type", format)

	if eng == nil {
		logger.Error("conversion attempted without an engine")
		return domain.Failure(domain.StatusProcessing, "Document conversion failed: "+domain.ErrEngineUnavailable.Error())
	}

	start := time.Now()
	data, err := worker.Run(ctx, c.pool, func(ctx context.Context) (*domain.ConversionData, error) {
		doc, err := eng.Convert(ctx, path)
		if err != nil {
			return nil, err
		}
		content, err := Render(doc, format)
		if err != nil {
			return nil, err
		}
		return &domain.ConversionData{
			Content: content,
			Metadata: domain.DocumentMetadata{
				PageCount: doc.PageCount(),
				FileType:  FileExtension(path),
			},
			Document: doc,
		}, nil
	})
	if err != nil {
		var pe *worker.PanicError
		if errors.As(err, &pe) {
			logger.Error("conversion panicked", "error", err, "stack", string(pe.Stack))
		} else {
			logger.Error("conversion error", "error", err)
		}
		return domain.Failure(domain.StatusProcessing, fmt.Sprintf("Document conversion failed: %v", err))
	}

	data.ProcessingTime = RoundSeconds(time.Since(start))
	logger.Info("document converted successfully",
		"processing_time", data.ProcessingTime,
		"page_count", data.Metadata.PageCount)
	return domain.Result{Status: domain.StatusOK, Message: "Document converted successfully", Data: data}
}

// Render runs exactly one exporter for format.
func Render(doc *document.Document, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputPlaintext:
		return doc.ExportText(), nil
	case domain.OutputHTML:
		return doc.ExportHTML(), nil
	case domain.OutputMarkdown, "":
		return doc.ExportMarkdown(document.ImageEmbedded), nil
	default:
		return "", fmt.Errorf("%w: output format %q", domain.ErrInvalidOption, format)
	}
}

// FileExtension returns the lower-cased extension of path without the dot.
func FileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// RoundSeconds converts d to seconds rounded to two decimals.
func RoundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
