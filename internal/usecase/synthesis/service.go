// Package synthesis turns retrieved context chunks into a grounded,
// citation-bearing answer.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// ApologyAnswer is returned whenever answer generation fails; callers see a
// structured non-success result, never a transport error.
const ApologyAnswer = "I apologize, but I encountered an error while processing your request."

const systemPrompt = `You are an expert assistant that answers questions from a private document collection.

CRITICAL INSTRUCTIONS:
1. ONLY use information directly from the provided context documents
2. Do NOT use prior knowledge that isn't in the provided documents
3. If the documents don't contain sufficient information, clearly state this limitation
4. ALWAYS cite sources by their designation in parentheses after relevant statements
5. NEVER make up citations or references
6. If you're asked about something not covered in the documents, say "I don't have specific information about that in my documents"

FORMATTING AND CONTENT:
- Structure your responses with clear headings and bullet points when appropriate
- Use plain language to explain complex concepts
- Include specific dates, numbers, and metrics from the documents when relevant

CITATION FORMAT:
- Include the citation immediately after the information it supports
- For information drawn from multiple sources, cite all relevant documents
- Never invent citations or reference documents not in the provided context`

// Options carries the optional synthesis inputs.
type Options struct {
	// History is prior conversation turns folded into the system prompt.
	History []domain.Message
	// ExtraInstructions is caller-supplied context appended to the system prompt.
	ExtraInstructions string
}

// Result is the synthesis outcome. Success is false only when generation
// failed and Answer holds the apology text.
type Result struct {
	Answer  string
	Success bool
}

// Service generates answers constrained to retrieved context.
type Service struct {
	completer   Completer
	model       string
	temperature float32
	logger      *zap.Logger
}

// New creates a synthesis service. temperature applies to every answer
// generation call.
func New(completer Completer, model string, temperature float32, logger *zap.Logger) *Service {
	return &Service{
		completer:   completer,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// Synthesize asks the completer for an answer over the given chunks. Any
// failure yields the apology result; errors never propagate to the caller.
func (s *Service) Synthesize(
	ctx context.Context, query string, chunks []domain.RetrievedChunk, opts Options,
) Result {
	req := domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: buildSystemPrompt(opts)},
			{Role: domain.RoleSystem, Content: "Context:\n" + formatContext(chunks)},
			{Role: domain.RoleUser, Content: query},
		},
		Model:       s.model,
		Temperature: s.temperature,
	}

	answer, err := s.completer.Complete(ctx, req)
	if err != nil {
		s.logger.Error("Answer synthesis failed",
			zap.String("model", s.model),
			zap.Int("context_chunks", len(chunks)),
			zap.Error(err),
		)
		return Result{Answer: ApologyAnswer, Success: false}
	}

	return Result{Answer: answer, Success: true}
}

// buildSystemPrompt appends extra instructions and conversation history to
// the base constraints.
func buildSystemPrompt(opts Options) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if extra := strings.TrimSpace(opts.ExtraInstructions); extra != "" {
		b.WriteString("\n\nAdditional context from the user:\n")
		b.WriteString(extra)
	}

	if len(opts.History) > 0 {
		b.WriteString("\n\nPrevious conversation:\n")
		for _, m := range opts.History {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\nPlease consider the previous conversation when answering the current question.")
	}

	return b.String()
}

// formatContext renders chunks as numbered, source-attributed blocks.
func formatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		source := c.Metadata[domain.MetadataFilenameKey]
		if source == "" {
			source = "Unknown source"
		}
		parts[i] = fmt.Sprintf("[Chunk %d - Source: %s]\n%s\n", i+1, source, c.Text)
	}
	return strings.Join(parts, "\n")
}
