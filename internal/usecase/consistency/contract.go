package consistency

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/ingest"
)

// Documents is the document store surface needed for verification.
type Documents interface {
	List(ctx context.Context) ([]domain.DocumentInfo, error)
	Get(ctx context.Context, documentID string) (domain.Document, error)
	Path(ctx context.Context, documentID string) (string, error)
}

// Index reports which documents have a published index pair.
type Index interface {
	ListIndexedIDs(ctx context.Context) ([]string, error)
}

// Extractor produces document text for re-ingestion.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Ingestor rebuilds a document's index.
type Ingestor interface {
	IngestAndIndex(ctx context.Context, documentID, text string, metadata map[string]string) (ingest.Result, error)
}
