package answer

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/synthesis"
)

// Retriever gathers ranked context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, expand bool) ([]domain.RetrievedChunk, []string, error)
}

// Synthesizer generates the final answer over retrieved context.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, chunks []domain.RetrievedChunk, opts synthesis.Options) synthesis.Result
}
