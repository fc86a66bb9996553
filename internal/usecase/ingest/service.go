// Package ingest runs the chunk → embed → index pipeline for one document.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Result summarizes one ingestion run.
type Result struct {
	DocumentID    string `json:"document_id"`
	TotalChunks   int    `json:"total_chunks"`
	IndexedChunks int    `json:"indexed_chunks"`
}

// Service builds a document's vector index from raw text.
type Service struct {
	chunker        Chunker
	embedder       Embedder
	index          IndexBuilder
	maxAttempts    int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// New creates an ingest service. maxAttempts and initialBackoff bound the
// per-chunk embedding retry loop.
func New(
	chunker Chunker,
	embedder Embedder,
	index IndexBuilder,
	maxAttempts int,
	initialBackoff time.Duration,
	logger *zap.Logger,
) *Service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Service{
		chunker:        chunker,
		embedder:       embedder,
		index:          index,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		logger:         logger,
	}
}

// IngestAndIndex chunks the text, embeds every chunk, and publishes the
// index pair. A chunk whose embedding keeps failing is skipped; the index
// is built over whatever vectors succeeded. Zero successful vectors is
// reported as domain.ErrNoEmbeddingsCreated.
func (s *Service) IngestAndIndex(
	ctx context.Context, documentID, text string, metadata map[string]string,
) (Result, error) {
	if documentID == "" {
		return Result{}, fmt.Errorf("empty document id: %w", domain.ErrDocumentNotFound)
	}

	texts := s.chunker.Split(text)

	result := Result{DocumentID: documentID, TotalChunks: len(texts)}
	if len(texts) == 0 {
		return result, fmt.Errorf("document %s produced no chunks: %w", documentID, domain.ErrNoEmbeddingsCreated)
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	vectors := make([][]float32, 0, len(texts))
	for ordinal, chunkText := range texts {
		vec, err := s.embedChunk(ctx, chunkText)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, fmt.Errorf("ingest %s: %w", documentID, ctx.Err())
			}
			// A stubborn chunk costs recall, not the whole document.
			s.logger.Warn("Chunk embedding failed, skipping",
				zap.String("document_id", documentID),
				zap.Int("ordinal", ordinal),
				zap.Error(err),
			)
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ChunkID:        domain.ChunkID(documentID, ordinal),
			Text:           chunkText,
			EmbeddingIndex: len(vectors),
		})
		vectors = append(vectors, vec)
	}

	if len(vectors) == 0 {
		return result, fmt.Errorf(
			"all %d chunks of %s failed to embed: %w",
			len(texts), documentID, domain.ErrNoEmbeddingsCreated,
		)
	}

	if err := s.index.Build(ctx, documentID, chunks, vectors, metadata); err != nil {
		return result, fmt.Errorf("build index for %s: %w", documentID, err)
	}

	result.IndexedChunks = len(vectors)
	s.logger.Info("Document ingested",
		zap.String("document_id", documentID),
		zap.Int("total_chunks", result.TotalChunks),
		zap.Int("indexed_chunks", result.IndexedChunks),
	)
	return result, nil
}

// embedChunk retries the embedding call with exponential backoff.
func (s *Service) embedChunk(ctx context.Context, text string) ([]float32, error) {
	backoff := s.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := s.embedder.Embed(ctx, text)
		if err == nil {
			return result.Embedding, nil
		}
		lastErr = err

		if attempt == s.maxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}
