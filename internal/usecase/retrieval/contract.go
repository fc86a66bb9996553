package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer generates query reformulations.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// Index is the vector index surface used during retrieval.
type Index interface {
	Search(ctx context.Context, documentID string, queryVec []float32, topK int) ([]domain.RetrievedChunk, error)
	ListIndexedIDs(ctx context.Context) ([]string, error)
}
