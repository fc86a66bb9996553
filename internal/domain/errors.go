package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexNotFound signals a missing vector index pair.
	ErrIndexNotFound = errors.New("index not found")
	// ErrNoEmbeddingsCreated signals that no chunk of a document could be embedded.
	ErrNoEmbeddingsCreated = errors.New("no embeddings created")
	// ErrEmptyQuery signals an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrUnsupportedFileType signals a file extension the ingestion pipeline rejects.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrVectorDimMismatch signals a vector dimension mismatch within an index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrIndexCorrupted signals an index/sidecar pair that cannot be decoded.
	ErrIndexCorrupted = errors.New("index corrupted")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrExtractionFailed signals that no text could be extracted from a source file.
	ErrExtractionFailed = errors.New("extraction failed")
)
