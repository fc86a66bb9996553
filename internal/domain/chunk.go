package domain

import "fmt"

// Chunk is one token window of a document, aligned with its vector row.
type Chunk struct {
	ChunkID        string `json:"chunk_id"`
	Text           string `json:"text"`
	EmbeddingIndex int    `json:"embedding_index"`
}

// ChunkID derives a chunk identifier from the document ID and the chunk's
// ordinal position in the original text.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_%d", documentID, ordinal)
}

// RetrievedChunk is a search hit: a chunk with its distance score and the
// owning document's metadata. Lower score is better.
type RetrievedChunk struct {
	DocumentID string            `json:"document_id"`
	ChunkID    string            `json:"chunk_id"`
	Text       string            `json:"text"`
	Score      float32           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
