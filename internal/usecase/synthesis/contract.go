package synthesis

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Completer generates the final answer.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}
