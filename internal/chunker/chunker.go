// Package chunker splits document text into overlapping token-bounded
// windows, the unit of embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultChunkSize is the window length in tokens.
	DefaultChunkSize = 1000
	// DefaultOverlap is the number of tokens shared between neighboring windows.
	DefaultOverlap = 100
	// minChunkTokens discards near-empty trailing windows.
	minChunkTokens = 10

	encodingName = "cl100k_base"
)

// Chunker splits text into overlapping token windows of a fixed BPE encoding.
// Sizes are token counts, not characters: token length is what bounds the
// embedding provider, not byte length.
type Chunker struct {
	enc       *tiktoken.Tiktoken
	chunkSize int
	overlap   int
}

// New creates a Chunker. chunkSize must exceed overlap so the window
// advances; non-positive values fall back to the defaults.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}

	return &Chunker{enc: enc, chunkSize: chunkSize, overlap: overlap}, nil
}

// Split tokenizes text and slides a chunkSize window forward by
// chunkSize-overlap tokens per step, decoding each window back to text.
// Windows under minChunkTokens are dropped. Empty text yields an empty
// slice; text shorter than one window yields a single chunk equal to the
// input (the encoding round-trip is lossless).
func (c *Chunker) Split(text string) []string {
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var chunks []string
	for i := 0; i < len(tokens); i += step {
		end := i + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[i:end]
		if len(window) < minChunkTokens {
			continue
		}
		chunks = append(chunks, c.enc.Decode(window))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// CountTokens returns the token length of text under the chunker's encoding.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
