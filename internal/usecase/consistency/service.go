// Package consistency detects and repairs gaps between the document store
// and the vector indices. A gap is a data-integrity state, not an error.
package consistency

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// VerifyReport describes the document/index coverage at one point in time.
type VerifyReport struct {
	TotalDocuments   int      `json:"total_documents"`
	IndexedDocuments int      `json:"indexed_documents"`
	Missing          []string `json:"missing"`
}

// Consistent reports whether every document has an index.
func (r VerifyReport) Consistent() bool {
	return len(r.Missing) == 0
}

// BackfillResult is the per-document outcome of one repair attempt.
type BackfillResult struct {
	DocumentID string `json:"document_id"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// BackfillReport is the outcome of a repair run: coverage before, what was
// attempted, and coverage after.
type BackfillReport struct {
	Before  VerifyReport     `json:"before"`
	Results []BackfillResult `json:"results"`
	After   VerifyReport     `json:"after"`
}

// Service verifies and repairs document/index coverage.
type Service struct {
	documents Documents
	index     Index
	extractor Extractor
	ingestor  Ingestor
	logger    *zap.Logger
}

// New creates a consistency service.
func New(documents Documents, index Index, extractor Extractor, ingestor Ingestor, logger *zap.Logger) *Service {
	return &Service{
		documents: documents,
		index:     index,
		extractor: extractor,
		ingestor:  ingestor,
		logger:    logger,
	}
}

// Verify compares the document listing against the indexed IDs.
func (s *Service) Verify(ctx context.Context) (VerifyReport, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("list documents: %w", err)
	}

	indexedIDs, err := s.index.ListIndexedIDs(ctx)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("list indexed ids: %w", err)
	}
	indexed := make(map[string]bool, len(indexedIDs))
	for _, id := range indexedIDs {
		indexed[id] = true
	}

	report := VerifyReport{TotalDocuments: len(docs), Missing: []string{}}
	for _, doc := range docs {
		if indexed[doc.ID] {
			report.IndexedDocuments++
		} else {
			report.Missing = append(report.Missing, doc.ID)
		}
	}
	sort.Strings(report.Missing)

	if !report.Consistent() {
		s.logger.Warn("Index coverage gap detected",
			zap.Int("total_documents", report.TotalDocuments),
			zap.Int("indexed_documents", report.IndexedDocuments),
			zap.Strings("missing", report.Missing),
		)
	}
	return report, nil
}

// Backfill rebuilds the index of every unindexed document and re-verifies.
// Per-document failures are recorded, never propagated.
func (s *Service) Backfill(ctx context.Context) (BackfillReport, error) {
	before, err := s.Verify(ctx)
	if err != nil {
		return BackfillReport{}, err
	}

	report := BackfillReport{Before: before, Results: []BackfillResult{}}
	for _, id := range before.Missing {
		if err := ctx.Err(); err != nil {
			return BackfillReport{}, fmt.Errorf("backfill: %w", err)
		}
		result := BackfillResult{DocumentID: id, Success: true}
		if err := s.rebuild(ctx, id); err != nil {
			s.logger.Warn("Backfill failed for document",
				zap.String("document_id", id), zap.Error(err))
			result.Success = false
			result.Error = err.Error()
		}
		report.Results = append(report.Results, result)
	}

	after, err := s.Verify(ctx)
	if err != nil {
		return BackfillReport{}, err
	}
	report.After = after

	s.logger.Info("Backfill completed",
		zap.Int("attempted", len(report.Results)),
		zap.Int("still_missing", len(after.Missing)),
	)
	return report, nil
}

func (s *Service) rebuild(ctx context.Context, documentID string) error {
	path, err := s.documents.Path(ctx, documentID)
	if err != nil {
		return fmt.Errorf("locate document: %w", err)
	}
	text, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extract document: %w", err)
	}
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document metadata: %w", err)
	}
	if _, err := s.ingestor.IngestAndIndex(ctx, documentID, text, doc.Metadata); err != nil {
		return fmt.Errorf("reindex document: %w", err)
	}
	return nil
}
