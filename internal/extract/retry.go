package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Retrying decorates an Extractor with a bounded attempt budget and
// exponential backoff. Input errors (unsupported type) are not retried.
type Retrying struct {
	inner          Extractor
	maxAttempts    int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// NewRetrying wraps an extractor with retries. maxAttempts is the total
// number of tries; backoff doubles after each failure.
func NewRetrying(inner Extractor, maxAttempts int, initialBackoff time.Duration, logger *zap.Logger) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrying{
		inner:          inner,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		logger:         logger,
	}
}

// Extract tries the inner extractor up to maxAttempts times.
func (r *Retrying) Extract(ctx context.Context, path string) (string, error) {
	backoff := r.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		text, err := r.inner.Extract(ctx, path)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, domain.ErrUnsupportedFileType) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}
		r.logger.Warn("Extraction failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("extract %s: %w", path, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return "", fmt.Errorf("extract %s after %d attempts: %w", path, r.maxAttempts, lastErr)
}
