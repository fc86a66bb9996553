package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/qa" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "how?" || req.TopK != 5 {
			t.Errorf("req = %+v", req)
		}

		_ = json.NewEncoder(w).Encode(AskResult{
			Answer:          "grounded",
			Chunks:          []Chunk{{ChunkID: "doc_0", Text: "ctx", Score: 0.1}},
			ExpandedQueries: []string{"variant"},
			Success:         true,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret"))
	result, err := c.Ask(context.Background(), AskRequest{Query: "how?", TopK: 5})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if result.Answer != "grounded" || !result.Success || len(result.Chunks) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestUploadDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "notes.txt" {
			t.Errorf("filename = %q", header.Filename)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(UploadResult{
			DocumentID: "doc-1", Filename: "notes.txt", TotalChunks: 2, IndexedChunks: 2,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.UploadDocument(context.Background(), "notes.txt", []byte("content"))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if result.DocumentID != "doc-1" || result.IndexedChunks != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestListDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documents": []DocumentInfo{{ID: "doc-1", Filename: "a.txt", Size: 12}},
			"count":     1,
		})
	}))
	defer srv.Close()

	docs, err := New(srv.URL).ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestVerifyAndBackfill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/qa/verify":
			_ = json.NewEncoder(w).Encode(VerifyReport{
				TotalDocuments: 2, IndexedDocuments: 1, Missing: []string{"doc-2"},
			})
		case "/qa/backfill":
			_ = json.NewEncoder(w).Encode(BackfillReport{
				Results: []BackfillResult{{DocumentID: "doc-2", Success: true}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	report, err := c.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Missing) != 1 {
		t.Errorf("report = %+v", report)
	}

	backfill, err := c.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if len(backfill.Results) != 1 || !backfill.Results[0].Success {
		t.Errorf("backfill = %+v", backfill)
	}
}

func TestHealthDecodesDegradedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthReport{
			Status: "degraded",
			Checks: map[string]string{"cache": "error", "embedding": "ok"},
		})
	}))
	defer srv.Close()

	report, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if report.Healthy() {
		t.Error("expected degraded report")
	}
	if report.Checks["cache"] != "error" {
		t.Errorf("checks = %+v", report.Checks)
	}
}

func TestAPIErrorParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code": "empty_query", "message": "Query is required",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Ask(context.Background(), AskRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "empty_query" || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
