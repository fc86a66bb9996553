package chi

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	consistencyuc "github.com/kailas-cloud/ragdex/internal/usecase/consistency"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
)

// Documents is the document store surface the API needs.
type Documents interface {
	Save(ctx context.Context, filename string, data []byte, metadata map[string]string) (domain.Document, error)
	List(ctx context.Context) ([]domain.DocumentInfo, error)
	Path(ctx context.Context, documentID string) (string, error)
}

// Extractor produces document text for indexing.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Ingestor builds a document's vector index.
type Ingestor interface {
	IngestAndIndex(ctx context.Context, documentID, text string, metadata map[string]string) (ingestuc.Result, error)
}

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Ask(ctx context.Context, req answeruc.Request) (answeruc.Response, error)
}

// ConsistencyChecker verifies and repairs index coverage.
type ConsistencyChecker interface {
	Verify(ctx context.Context) (consistencyuc.VerifyReport, error)
	Backfill(ctx context.Context) (consistencyuc.BackfillReport, error)
}
