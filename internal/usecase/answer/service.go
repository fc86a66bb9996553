// Package answer glues retrieval and synthesis into the question-answering
// pipeline.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/synthesis"
)

// Request carries one question and its optional conversation state.
type Request struct {
	Query             string
	TopK              int
	History           []domain.Message
	ExtraInstructions string
}

// Response is the full question-answering outcome.
type Response struct {
	Answer          string                  `json:"answer"`
	Chunks          []domain.RetrievedChunk `json:"chunks"`
	ExpandedQueries []string                `json:"expanded_queries"`
	Success         bool                    `json:"success"`
}

// Service answers questions over the indexed document collection.
type Service struct {
	retriever   Retriever
	synthesizer Synthesizer
	defaultTopK int
	maxTopK     int
	logger      *zap.Logger
}

// New creates an answer service. defaultTopK applies when a request leaves
// TopK unset; maxTopK caps it.
func New(retriever Retriever, synthesizer Synthesizer, defaultTopK, maxTopK int, logger *zap.Logger) *Service {
	return &Service{
		retriever:   retriever,
		synthesizer: synthesizer,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      logger,
	}
}

// Ask retrieves context (with query expansion) and synthesizes an answer.
// An empty index yields a well-formed non-success or low-information
// response, never an error.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if s.maxTopK > 0 && topK > s.maxTopK {
		topK = s.maxTopK
	}

	chunks, expansions, err := s.retriever.Retrieve(ctx, req.Query, topK, true)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve context: %w", err)
	}

	result := s.synthesizer.Synthesize(ctx, req.Query, chunks, synthesis.Options{
		History:           req.History,
		ExtraInstructions: req.ExtraInstructions,
	})

	s.logger.Info("Question answered",
		zap.Int("context_chunks", len(chunks)),
		zap.Int("expansions", len(expansions)),
		zap.Bool("success", result.Success),
	)

	if chunks == nil {
		chunks = []domain.RetrievedChunk{}
	}
	if expansions == nil {
		expansions = []string{}
	}
	return Response{
		Answer:          result.Answer,
		Chunks:          chunks,
		ExpandedQueries: expansions,
		Success:         result.Success,
	}, nil
}
