package ragdex

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type clientConfig struct {
	apiKey       string
	baseURL      string
	documentsDir string
	indexDir     string

	embeddingModel      string
	embeddingDimensions int
	completionModel     string
	expansionModel      string
	temperature         float32

	chunkSize     int
	overlap       int
	defaultTopK   int
	maxTopK       int
	numExpansions int

	cacheAddrs    []string
	cachePassword string

	embedder  domain.Embedder
	completer domain.Completer
	logger    *zap.Logger
}

// Option configures the embedded client.
type Option func(*clientConfig)

// WithAPIKey sets the OpenAI-compatible API key for both embedding and
// completion calls.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithBaseURL points the provider clients at an alternative endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithDataDir stores documents and indices under dir.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.documentsDir = filepath.Join(dir, "documents")
		c.indexDir = filepath.Join(dir, "embeddings")
	}
}

// WithEmbeddingModel overrides the embedding model; dimensions of 0 keeps
// the provider default.
func WithEmbeddingModel(model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.embeddingModel = model
		c.embeddingDimensions = dimensions
	}
}

// WithCompletionModel overrides the answer and expansion models.
func WithCompletionModel(model, expansionModel string) Option {
	return func(c *clientConfig) {
		c.completionModel = model
		c.expansionModel = expansionModel
	}
}

// WithChunking overrides the token-window chunking parameters.
func WithChunking(chunkSize, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = chunkSize
		c.overlap = overlap
	}
}

// WithRetrieval overrides the retrieval fan-out parameters.
func WithRetrieval(defaultTopK, maxTopK, numExpansions int) Option {
	return func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.maxTopK = maxTopK
		c.numExpansions = numExpansions
	}
}

// WithCache enables the shared embedding cache.
func WithCache(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
	}
}

// WithEmbedder replaces the OpenAI embedder with a custom implementation.
func WithEmbedder(e domain.Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithCompleter replaces the OpenAI completer with a custom implementation.
func WithCompleter(cc domain.Completer) Option {
	return func(c *clientConfig) { c.completer = cc }
}

// WithLogger sets the client logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
