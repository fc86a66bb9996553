// Package retrieval runs multi-query search across all document indices and
// merges the hits into a single ranked context.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const expansionSystemPrompt = "You are a query expansion assistant. Your task is to generate alternative " +
	"versions of the user's query that might retrieve additional relevant information. " +
	"Generate semantically different but related queries that explore different aspects " +
	"or phrasings of the same information need. Return ONLY a numbered list of queries, " +
	"no explanations or other text."

// Service retrieves context chunks for a query.
type Service struct {
	embedder       Embedder
	completer      Completer
	index          Index
	expansionModel string
	numExpansions  int
	logger         *zap.Logger
}

// New creates a retrieval service. numExpansions caps how many query
// reformulations are requested per retrieval.
func New(
	embedder Embedder,
	completer Completer,
	index Index,
	expansionModel string,
	numExpansions int,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:       embedder,
		completer:      completer,
		index:          index,
		expansionModel: expansionModel,
		numExpansions:  numExpansions,
		logger:         logger,
	}
}

// Retrieve searches every indexed document with the query and, when expand
// is set, its reformulations. Results come back ascending by score (lower
// is closer), deduplicated, at most topK, together with the expansion set
// actually used.
func (s *Service) Retrieve(
	ctx context.Context, query string, topK int, expand bool,
) ([]domain.RetrievedChunk, []string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, domain.ErrEmptyQuery
	}

	var expansions []string
	if expand && s.numExpansions > 0 {
		expansions = s.expandQuery(ctx, query)
	}

	ids, err := s.index.ListIndexedIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list indexed documents: %w", err)
	}

	queries := append([]string{query}, expansions...)

	var all []domain.RetrievedChunk
	for _, q := range queries {
		hits, err := s.searchAll(ctx, ids, q, topK)
		if err != nil {
			// A failed sub-query narrows the context, it never fails retrieval.
			s.logger.Warn("Sub-query search failed, skipping",
				zap.String("query", q), zap.Error(err))
			continue
		}
		all = append(all, hits...)
	}

	return mergeChunks(all, topK), expansions, nil
}

// expandQuery asks the completer for reformulations. Any failure degrades
// to an empty expansion set.
func (s *Service) expandQuery(ctx context.Context, query string) []string {
	req := domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: expansionSystemPrompt},
			{Role: domain.RoleUser, Content: fmt.Sprintf(
				"Original query: '%s'\n\nGenerate %d alternative queries.", query, s.numExpansions,
			)},
		},
		Model:       s.expansionModel,
		Temperature: 0.7,
	}

	response, err := s.completer.Complete(ctx, req)
	if err != nil {
		s.logger.Warn("Query expansion failed, proceeding without expansions",
			zap.String("query", query), zap.Error(err))
		return nil
	}

	expansions := parseExpansions(response)
	if len(expansions) > s.numExpansions {
		expansions = expansions[:s.numExpansions]
	}

	s.logger.Debug("Query expanded",
		zap.String("query", query),
		zap.Strings("expansions", expansions),
	)
	return expansions
}

// parseExpansions extracts queries from a numbered-list response, stripping
// numbering and wrapping quotes.
func parseExpansions(response string) []string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		if i := strings.IndexAny(clean, ".)"); i > 0 && i <= 2 && isDigits(clean[:i]) {
			clean = strings.TrimSpace(clean[i+1:])
		}
		clean = strings.TrimPrefix(clean, "- ")
		if len(clean) >= 2 {
			if (clean[0] == '"' && clean[len(clean)-1] == '"') ||
				(clean[0] == '\'' && clean[len(clean)-1] == '\'') {
				clean = clean[1 : len(clean)-1]
			}
		}
		if clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// searchAll embeds one query and fans it out over every indexed document.
func (s *Service) searchAll(
	ctx context.Context, ids []string, query string, topK int,
) ([]domain.RetrievedChunk, error) {
	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var hits []domain.RetrievedChunk
	for _, id := range ids {
		docHits, err := s.index.Search(ctx, id, result.Embedding, topK)
		if err != nil {
			s.logger.Warn("Document search failed, skipping",
				zap.String("document_id", id), zap.Error(err))
			continue
		}
		hits = append(hits, docHits...)
	}
	return hits, nil
}

// mergeChunks sorts ascending by score (stable), drops duplicates by exact
// text and then by chunk id (the best-scoring copy survives), and truncates
// to topK.
func mergeChunks(chunks []domain.RetrievedChunk, topK int) []domain.RetrievedChunk {
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score < chunks[j].Score })

	seenTexts := make(map[string]bool, len(chunks))
	seenIDs := make(map[string]bool, len(chunks))
	merged := make([]domain.RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		if seenTexts[c.Text] || seenIDs[c.ChunkID] {
			continue
		}
		seenTexts[c.Text] = true
		seenIDs[c.ChunkID] = true
		merged = append(merged, c)
	}

	if topK >= 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
