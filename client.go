// Package ragdex is the embedded SDK: the full ingestion and
// question-answering pipeline wired in-process, without the HTTP server.
package ragdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/chunker"
	"github.com/kailas-cloud/ragdex/internal/db"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/extract"
	"github.com/kailas-cloud/ragdex/internal/repository/docstore"
	"github.com/kailas-cloud/ragdex/internal/repository/embcache"
	"github.com/kailas-cloud/ragdex/internal/repository/indexstore"
	openaiTransport "github.com/kailas-cloud/ragdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	consistencyuc "github.com/kailas-cloud/ragdex/internal/usecase/consistency"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
	synthesisuc "github.com/kailas-cloud/ragdex/internal/usecase/synthesis"
)

const (
	defaultReadinessTimeout  = 10 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 200 * time.Millisecond
	defaultEmbeddingTimeout  = 30 * time.Second
	defaultCompletionTimeout = 2 * time.Minute
)

// IngestResult summarizes one document ingestion.
type IngestResult struct {
	DocumentID    string
	TotalChunks   int
	IndexedChunks int
}

// Chunk is one retrieved context chunk.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Score      float32
	Source     string
}

// Answer is the question-answering outcome.
type Answer struct {
	Text            string
	Chunks          []Chunk
	ExpandedQueries []string
	Success         bool
}

// VerifyReport describes document/index coverage.
type VerifyReport struct {
	TotalDocuments   int
	IndexedDocuments int
	Missing          []string
}

// BackfillReport is the outcome of a repair run.
type BackfillReport struct {
	Before    VerifyReport
	Attempted int
	Failed    []string
	After     VerifyReport
}

// Client is the ragdex SDK entry point.
type Client struct {
	cache       db.Store
	documents   *docstore.Store
	extractor   extract.Extractor
	ingestSvc   *ingestuc.Service
	answerSvc   *answeruc.Service
	consistency *consistencyuc.Service
}

// New creates an embedded ragdex client. An API key is required unless both
// a custom embedder and completer are supplied.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		embeddingModel:  "text-embedding-3-small",
		completionModel: "gpt-4.1-mini",
		chunkSize:       chunker.DefaultChunkSize,
		overlap:         chunker.DefaultOverlap,
		defaultTopK:     3,
		maxTopK:         20,
		numExpansions:   3,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.documentsDir == "" || cfg.indexDir == "" {
		return nil, errors.New("ragdex: data directory required (use WithDataDir)")
	}
	if cfg.apiKey == "" && (cfg.embedder == nil || cfg.completer == nil) {
		return nil, errors.New("ragdex: API key required (use WithAPIKey)")
	}
	if cfg.expansionModel == "" {
		cfg.expansionModel = cfg.completionModel
	}

	var cache db.Store
	if len(cfg.cacheAddrs) > 0 {
		var err error
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("ragdex: create cache store: %w", err)
		}
		if err := cache.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			cache.Close()
			return nil, fmt.Errorf("ragdex: cache not ready: %w", err)
		}
	}

	c, err := wireClient(cfg, cache)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	return c, nil
}

func wireClient(cfg *clientConfig, cache db.Store) (*Client, error) {
	logger := cfg.logger

	embedder := cfg.embedder
	if embedder == nil {
		var e domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.embeddingDimensions,
			Timeout:    defaultEmbeddingTimeout,
			Logger:     logger,
		})
		if cache != nil {
			e = embcache.New(e, cache, nil, logger)
		}
		embedder = e
	}

	completer := cfg.completer
	if completer == nil {
		completer = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			APIKey:  cfg.apiKey,
			BaseURL: cfg.baseURL,
			Model:   cfg.completionModel,
			Timeout: defaultCompletionTimeout,
			Logger:  logger,
		})
	}

	documents, err := docstore.New(cfg.documentsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("ragdex: open document store: %w", err)
	}
	indices, err := indexstore.New(cfg.indexDir, logger)
	if err != nil {
		return nil, fmt.Errorf("ragdex: open index store: %w", err)
	}

	splitter, err := chunker.New(cfg.chunkSize, cfg.overlap)
	if err != nil {
		return nil, fmt.Errorf("ragdex: create chunker: %w", err)
	}
	extractor := extract.NewRetrying(
		extract.NewPlainText(), defaultRetryAttempts, defaultRetryBackoff, logger,
	)

	ingestSvc := ingestuc.New(
		splitter, embedder, indices, defaultRetryAttempts, defaultRetryBackoff, logger,
	)
	retrievalSvc := retrievaluc.New(
		embedder, completer, indices, cfg.expansionModel, cfg.numExpansions, logger,
	)
	synthesisSvc := synthesisuc.New(completer, cfg.completionModel, cfg.temperature, logger)
	answerSvc := answeruc.New(retrievalSvc, synthesisSvc, cfg.defaultTopK, cfg.maxTopK, logger)
	consistencySvc := consistencyuc.New(documents, indices, extractor, ingestSvc, logger)

	return &Client{
		cache:       cache,
		documents:   documents,
		extractor:   extractor,
		ingestSvc:   ingestSvc,
		answerSvc:   answerSvc,
		consistency: consistencySvc,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Ingest stores a document and builds its vector index. filename determines
// the file type; supported types are plain text, markdown, and CSV.
func (c *Client) Ingest(ctx context.Context, filename string, content []byte) (IngestResult, error) {
	doc, err := c.documents.Save(ctx, filename, content, nil)
	if err != nil {
		return IngestResult{}, fmt.Errorf("save document: %w", err)
	}

	path, err := c.documents.Path(ctx, doc.ID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("locate document: %w", err)
	}
	text, err := c.extractor.Extract(ctx, path)
	if err != nil {
		return IngestResult{}, fmt.Errorf("extract document: %w", err)
	}

	result, err := c.ingestSvc.IngestAndIndex(ctx, doc.ID, text, doc.Metadata)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{
		DocumentID:    result.DocumentID,
		TotalChunks:   result.TotalChunks,
		IndexedChunks: result.IndexedChunks,
	}, nil
}

// Ask answers a question over the indexed documents.
func (c *Client) Ask(ctx context.Context, query string) (Answer, error) {
	resp, err := c.answerSvc.Ask(ctx, answeruc.Request{Query: query})
	if err != nil {
		return Answer{}, err
	}

	chunks := make([]Chunk, len(resp.Chunks))
	for i, rc := range resp.Chunks {
		chunks[i] = Chunk{
			DocumentID: rc.DocumentID,
			ChunkID:    rc.ChunkID,
			Text:       rc.Text,
			Score:      rc.Score,
			Source:     rc.Metadata[domain.MetadataFilenameKey],
		}
	}
	return Answer{
		Text:            resp.Answer,
		Chunks:          chunks,
		ExpandedQueries: resp.ExpandedQueries,
		Success:         resp.Success,
	}, nil
}

// Verify reports document/index coverage.
func (c *Client) Verify(ctx context.Context) (VerifyReport, error) {
	report, err := c.consistency.Verify(ctx)
	if err != nil {
		return VerifyReport{}, err
	}
	return VerifyReport{
		TotalDocuments:   report.TotalDocuments,
		IndexedDocuments: report.IndexedDocuments,
		Missing:          report.Missing,
	}, nil
}

// Backfill rebuilds missing indices and reports the outcome.
func (c *Client) Backfill(ctx context.Context) (BackfillReport, error) {
	report, err := c.consistency.Backfill(ctx)
	if err != nil {
		return BackfillReport{}, err
	}

	out := BackfillReport{
		Before: VerifyReport{
			TotalDocuments:   report.Before.TotalDocuments,
			IndexedDocuments: report.Before.IndexedDocuments,
			Missing:          report.Before.Missing,
		},
		Attempted: len(report.Results),
		After: VerifyReport{
			TotalDocuments:   report.After.TotalDocuments,
			IndexedDocuments: report.After.IndexedDocuments,
			Missing:          report.After.Missing,
		},
	}
	for _, r := range report.Results {
		if !r.Success {
			out.Failed = append(out.Failed, r.DocumentID)
		}
	}
	return out, nil
}
