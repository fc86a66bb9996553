// Package sdk is a thin typed client for the ragdex HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 2 * time.Minute

// Client talks to a ragdex server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// UploadResult is the document upload outcome.
type UploadResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	TotalChunks   int    `json:"total_chunks"`
	IndexedChunks int    `json:"indexed_chunks"`
}

// DocumentInfo is one entry of the document listing.
type DocumentInfo struct {
	ID       string `json:"document_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is the question-answering request.
type AskRequest struct {
	Query           string    `json:"query"`
	TopK            int       `json:"top_k,omitempty"`
	History         []Message `json:"history,omitempty"`
	MetaInformation string    `json:"meta_information,omitempty"`
}

// Chunk is one retrieved context chunk.
type Chunk struct {
	DocumentID string            `json:"document_id"`
	ChunkID    string            `json:"chunk_id"`
	Text       string            `json:"text"`
	Score      float32           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AskResult is the question-answering outcome.
type AskResult struct {
	Answer          string   `json:"answer"`
	Chunks          []Chunk  `json:"chunks"`
	ExpandedQueries []string `json:"expanded_queries"`
	Success         bool     `json:"success"`
}

// VerifyReport describes document/index coverage.
type VerifyReport struct {
	TotalDocuments   int      `json:"total_documents"`
	IndexedDocuments int      `json:"indexed_documents"`
	Missing          []string `json:"missing"`
}

// BackfillResult is one per-document repair outcome.
type BackfillResult struct {
	DocumentID string `json:"document_id"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// BackfillReport is the outcome of a repair run.
type BackfillReport struct {
	Before  VerifyReport     `json:"before"`
	Results []BackfillResult `json:"results"`
	After   VerifyReport     `json:"after"`
}

// UploadDocument uploads a file for indexing.
func (c *Client) UploadDocument(ctx context.Context, filename string, content []byte) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}

	var out UploadResult
	err = c.do(ctx, http.MethodPost, "/documents", &buf, mw.FormDataContentType(), &out)
	return out, err
}

// ListDocuments returns the stored documents.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	var out struct {
		Documents []DocumentInfo `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/documents", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Ask answers a question over the indexed documents.
func (c *Client) Ask(ctx context.Context, req AskRequest) (AskResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return AskResult{}, fmt.Errorf("encode request: %w", err)
	}
	var out AskResult
	err = c.do(ctx, http.MethodPost, "/qa", bytes.NewReader(body), "application/json", &out)
	return out, err
}

// Verify reports document/index coverage.
func (c *Client) Verify(ctx context.Context) (VerifyReport, error) {
	var out VerifyReport
	err := c.do(ctx, http.MethodGet, "/qa/verify", nil, "", &out)
	return out, err
}

// Backfill rebuilds missing indices.
func (c *Client) Backfill(ctx context.Context) (BackfillReport, error) {
	var out BackfillReport
	err := c.do(ctx, http.MethodPost, "/qa/backfill", nil, "", &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
