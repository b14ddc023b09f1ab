package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"docproc/internal/document"
	"docproc/internal/domain"
	"docproc/internal/logging"
	"docproc/internal/port"
)

// ConvertInput is an uploaded file plus its conversion options.
type ConvertInput struct {
	File      io.Reader
	FileName  string
	RequestID string
	Principal string
	Options   domain.ConversionOptions
}

// ConvertAndChunkInput adds chunking options to ConvertInput.
type ConvertAndChunkInput struct {
	ConvertInput
	Chunk domain.ChunkOptions
}

// ConversionService orchestrates upload, engine initialization, conversion
// and chunking. The returned error is only set when the upload itself is
// rejected or cannot be stored; everything after that is reported through
// the envelope.
type ConversionService interface {
	Convert(ctx context.Context, input ConvertInput) (domain.Result, error)
	ConvertAndChunk(ctx context.Context, input ConvertAndChunkInput) (domain.Result, error)
}

// EngineConverter is the part of *Converter the orchestrator uses.
type EngineConverter interface {
	Initialize(ctx context.Context, enableOCR bool, languages []string) Initialization
	Convert(ctx context.Context, eng port.DocumentEngine, path string, format domain.OutputFormat) domain.Result
}

type conversionService struct {
	upload    UploadService
	converter EngineConverter
	chunker   ChunkService
	history   HistoryService
	archive   ArchiveService
}

// NewConversionService creates the orchestrator. archive may be nil.
func NewConversionService(
	upload UploadService,
	converter EngineConverter,
	chunker ChunkService,
	history HistoryService,
	archive ArchiveService,
) ConversionService {
	if history == nil {
		history = NewHistoryService(nil)
	}
	return &conversionService{
		upload:    upload,
		converter: converter,
		chunker:   chunker,
		history:   history,
		archive:   archive,
	}
}

func (s *conversionService) Convert(ctx context.Context, input ConvertInput) (domain.Result, error) {
	logger := logging.FromContext(ctx)
	logger.Info("processing document",
		"file_name", input.FileName,
		"enable_ocr", input.Options.EnableOCR,
		"output_type", input.Options.OutputFormat)

	rec := s.newRecord(input, domain.OperationConvert)
	stored, err := s.upload.Save(ctx, input.File, input.FileName)
	if err != nil {
		s.recordRejected(ctx, rec, err)
		return domain.Result{}, err
	}
	defer stored.Release()
	fillRecordFile(rec, stored)

	start := time.Now()
	res, _ := s.convert(ctx, input, stored)
	if data, ok := res.Data.(*domain.ConversionData); ok && res.OK() {
		data.ProcessingTime = RoundSeconds(time.Since(start))
		rec.PageCount = data.Metadata.PageCount
		rec.ProcessingTime = data.ProcessingTime
	}

	rec.Status, rec.Message = res.Status, res.Message
	s.history.Record(ctx, rec)

	logger.Info("document processing completed",
		"success", res.OK(),
		"total_processing_time", RoundSeconds(time.Since(start)))
	return res, nil
}

func (s *conversionService) ConvertAndChunk(ctx context.Context, input ConvertAndChunkInput) (domain.Result, error) {
	logger := logging.FromContext(ctx)
	logger.Info("processing document with chunking",
		"file_name", input.FileName,
		"enable_ocr", input.Options.EnableOCR,
		"max_tokens", input.Chunk.MaxTokens,
		"chunk_type", input.Chunk.Strategy)

	rec := s.newRecord(input.ConvertInput, domain.OperationConvertAndChunk)
	rec.ChunkStrategy = string(input.Chunk.Strategy)
	stored, err := s.upload.Save(ctx, input.File, input.FileName)
	if err != nil {
		s.recordRejected(ctx, rec, err)
		return domain.Result{}, err
	}
	defer stored.Release()
	fillRecordFile(rec, stored)

	start := time.Now()
	convRes, doc := s.convert(ctx, input.ConvertInput, stored)
	if !convRes.OK() {
		rec.Status, rec.Message = convRes.Status, convRes.Message
		s.history.Record(ctx, rec)
		return convRes, nil
	}
	conv, ok := convRes.Data.(*domain.ConversionData)
	if !ok {
		res := domain.Failure(domain.StatusProcessing, "Document conversion failed: unexpected conversion payload")
		rec.Status, rec.Message = res.Status, res.Message
		s.history.Record(ctx, rec)
		return res, nil
	}
	summary := domain.ConversionSummary{Content: conv.Content, Metadata: conv.Metadata}
	rec.PageCount = conv.Metadata.PageCount

	chunkRes := s.chunker.Chunk(ctx, doc, input.Chunk)
	elapsed := RoundSeconds(time.Since(start))
	rec.ProcessingTime = elapsed

	var res domain.Result
	if set, ok := chunkRes.Data.(*domain.ChunkSet); ok && chunkRes.OK() {
		res = domain.Result{
			Status:  domain.StatusOK,
			Message: "Document converted and chunked successfully",
			Data: &domain.ChunkingData{
				Conversion:     summary,
				Chunks:         set.Chunks,
				TotalChunks:    set.TotalChunks,
				ProcessingTime: elapsed,
			},
		}
		rec.TotalChunks = set.TotalChunks
	} else {
		logger.Warn("chunking failed, returning conversion result only", "status", chunkRes.Status, "message", chunkRes.Message)
		status := chunkRes.Status
		if status == domain.StatusOK {
			status = domain.StatusProcessing
		}
		res = domain.Result{
			Status:  status,
			Message: chunkRes.Message,
			Data: &domain.ChunkingData{
				Conversion:     summary,
				Chunks:         []domain.Chunk{},
				TotalChunks:    0,
				ProcessingTime: elapsed,
				Partial:        true,
			},
		}
	}

	rec.Status, rec.Message = res.Status, res.Message
	s.history.Record(ctx, rec)

	logger.Info("document conversion and chunking completed",
		"success", res.OK(),
		"total_chunks", rec.TotalChunks,
		"total_processing_time", elapsed)
	return res, nil
}

// convert initializes the engine for the request and runs the conversion.
// A failed initialization still goes through Convert so the failure is
// reported in the usual envelope.
func (s *conversionService) convert(ctx context.Context, input ConvertInput, stored *StoredFile) (domain.Result, *document.Document) {
	logger := logging.FromContext(ctx)

	engInit := s.converter.Initialize(ctx, input.Options.EnableOCR, input.Options.OCRLanguages)
	if engInit.Mode != InitReady {
		logger.Warn("using fallback converter configuration", "mode", engInit.Mode, "error", engInit.Err)
	}

	res := s.converter.Convert(ctx, engInit.Engine, stored.StoredPath, input.Options.OutputFormat)
	if !res.OK() {
		return res, nil
	}
	data, ok := res.Data.(*domain.ConversionData)
	if !ok {
		logger.Error("converter returned an unexpected payload", "type", fmt.Sprintf("%T", res.Data))
		return domain.Failure(domain.StatusProcessing, "Document conversion failed: unexpected conversion payload"), nil
	}
	data.Metadata.EngineMode = string(engInit.Mode)

	if s.archive != nil {
		url, err := s.archive.Archive(ctx, input.RequestID, stored.StoredName, input.Options.OutputFormat, data.Content)
		if err != nil {
			logger.Error("failed to archive conversion result", "error", err)
		} else {
			data.Metadata.ArchiveURL = url
		}
	}
	return res, data.Document
}

func (s *conversionService) newRecord(input ConvertInput, op domain.Operation) *domain.ConversionRecord {
	return &domain.ConversionRecord{
		RequestID:    input.RequestID,
		Principal:    input.Principal,
		Operation:    op,
		FileName:     input.FileName,
		OutputFormat: string(input.Options.OutputFormat),
		OCREnabled:   input.Options.EnableOCR,
	}
}

func (s *conversionService) recordRejected(ctx context.Context, rec *domain.ConversionRecord, err error) {
	rec.Status = domain.StatusFor(err)
	rec.Message = err.Error()
	s.history.Record(ctx, rec)
}

func fillRecordFile(rec *domain.ConversionRecord, stored *StoredFile) {
	rec.MIMEType = stored.DetectedMIMEType
	rec.SizeBytes = stored.SizeBytes
}
