package service

import (
	"context"
	"fmt"
	"time"

	"docproc/internal/chunking"
	"docproc/internal/document"
	"docproc/internal/domain"
	"docproc/internal/logging"
	"docproc/internal/worker"
)

// ChunkService splits structured documents into token-counted chunks.
type ChunkService interface {
	Chunk(ctx context.Context, doc *document.Document, opts domain.ChunkOptions) domain.Result
}

type chunkService struct {
	tokenizer chunking.Tokenizer
	pool      *worker.Pool
}

// NewChunkService creates a ChunkService counting tokens with tok.
func NewChunkService(tok chunking.Tokenizer, pool *worker.Pool) ChunkService {
	return &chunkService{tokenizer: tok, pool: pool}
}

// Chunk runs the selected strategy on the worker pool. The success payload is
// a *domain.ChunkSet; any failure yields status 4 and no data.
func (s *chunkService) Chunk(ctx context.Context, doc *document.Document, opts domain.ChunkOptions) domain.Result {
	logger := logging.FromContext(ctx).With("component", "chunking")
	logger.Info("starting document chunking", "max_tokens", opts.MaxTokens, "chunk_type", opts.Strategy)

	start := time.Now()
	chunks, err := worker.Run(ctx, s.pool, func(ctx context.Context) ([]domain.Chunk, error) {
		if doc == nil {
			return nil, fmt.Errorf("no structured document to chunk")
		}
		if opts.MaxTokens <= 0 {
			return nil, fmt.Errorf("%w: max_tokens must be positive, got %d", domain.ErrInvalidOption, opts.MaxTokens)
		}
		chunker, err := chunking.New(opts.Strategy, s.tokenizer, opts.MaxTokens)
		if err != nil {
			return nil, err
		}
		raw, err := chunker.Chunk(ctx, doc)
		if err != nil {
			return nil, err
		}

		out := make([]domain.Chunk, 0, len(raw))
		for i, c := range raw {
			enriched := chunking.Contextualize(c)
			count := 0
			if enriched != "" {
				if count, err = s.tokenizer.CountTokens(enriched); err != nil {
					return nil, fmt.Errorf("counting tokens for chunk %d: %w", i, err)
				}
			}
			out = append(out, domain.Chunk{
				ID:           i,
				EnrichedText: enriched,
				TokenCount:   count,
				Content:      enriched,
				Oversized:    c.Oversized,
			})
		}
		return out, nil
	})
	if err != nil {
		logger.Error("failed to chunk document", "error", err)
		return domain.Failure(domain.StatusProcessing, fmt.Sprintf("Failed to chunk document: %v", err))
	}

	set := &domain.ChunkSet{
		Chunks:         chunks,
		TotalChunks:    len(chunks),
		ProcessingTime: RoundSeconds(time.Since(start)),
	}
	logger.Info("document chunked successfully", "total_chunks", set.TotalChunks, "processing_time", set.ProcessingTime)
	return domain.Result{Status: domain.StatusOK, Message: "Document chunked successfully", Data: set}
}
