package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Chunker splits document text into token windows.
type Chunker interface {
	Split(text string) []string
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// IndexBuilder publishes a document's index pair.
type IndexBuilder interface {
	Build(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32, metadata map[string]string) error
}
