// Package chi exposes the HTTP API: document upload and listing, question
// answering, and index consistency operations.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
)

const maxUploadBytes = 32 << 20

// ErrorCode identifies an API error category in responses.
type ErrorCode string

const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeDocumentNotFound        ErrorCode = "document_not_found"
	CodeUnsupportedFileType     ErrorCode = "unsupported_file_type"
	CodeEmptyQuery              ErrorCode = "empty_query"
	CodeNoEmbeddingsCreated     ErrorCode = "no_embeddings_created"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeCompletionProviderError ErrorCode = "completion_provider_error"
	CodeIndexCorrupted          ErrorCode = "index_corrupted"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP API handlers.
type Server struct {
	documents     Documents
	extractor     Extractor
	ingest        Ingestor
	answer        Answerer
	consistency   ConsistencyChecker
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents Documents,
	extractor Extractor,
	ingest Ingestor,
	answer Answerer,
	consistency ConsistencyChecker,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:   documents,
		extractor:   extractor,
		ingest:      ingest,
		answer:      answer,
		consistency: consistency,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrUnsupportedFileType, http.StatusBadRequest, CodeUnsupportedFileType),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeEmptyQuery),
		sentinelHandler(domain.ErrNoEmbeddingsCreated, http.StatusUnprocessableEntity, CodeNoEmbeddingsCreated),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrIndexCorrupted, http.StatusInternalServerError, CodeIndexCorrupted),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeCompletionProviderError),
	}
	return s
}

// Routes mounts every API route on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/documents", s.UploadDocument)
	r.Get("/documents", s.ListDocuments)
	r.Post("/qa", s.Ask)
	r.Get("/qa/verify", s.Verify)
	r.Post("/qa/backfill", s.Backfill)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// UploadResponse is the document upload result.
type UploadResponse struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	TotalChunks   int    `json:"total_chunks"`
	IndexedChunks int    `json:"indexed_chunks"`
}

// UploadDocument handles POST /documents: multipart file upload followed by
// immediate indexing.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart upload: "+err.Error())
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Failed to read upload: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Uploaded file is empty")
		return
	}

	doc, err := s.documents.Save(r.Context(), header.Filename, data, nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	path, err := s.documents.Path(r.Context(), doc.ID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	text, err := s.extractor.Extract(r.Context(), path)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, err := s.ingest.IngestAndIndex(r.Context(), doc.ID, text, doc.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		DocumentID:    result.DocumentID,
		Filename:      doc.Filename(),
		TotalChunks:   result.TotalChunks,
		IndexedChunks: result.IndexedChunks,
	})
}

// DocumentListResponse is the document listing body.
type DocumentListResponse struct {
	Documents []domain.DocumentInfo `json:"documents"`
	Count     int                   `json:"count"`
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.documents.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if infos == nil {
		infos = []domain.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: infos, Count: len(infos)})
}

// AskRequest is the POST /qa body.
type AskRequest struct {
	Query           string           `json:"query"`
	TopK            int              `json:"top_k,omitempty"`
	History         []domain.Message `json:"history,omitempty"`
	MetaInformation string           `json:"meta_information,omitempty"`
}

// Ask handles POST /qa. Before retrieval it verifies index coverage and
// triggers a backfill when gaps exist, so stale indices heal on read.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeEmptyQuery, "Query is required")
		return
	}

	s.healIndexGaps(r)

	resp, err := s.answer.Ask(r.Context(), answeruc.Request{
		Query:             req.Query,
		TopK:              req.TopK,
		History:           req.History,
		ExtraInstructions: req.MetaInformation,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// healIndexGaps runs verify-then-backfill best-effort; failures only log.
func (s *Server) healIndexGaps(r *http.Request) {
	report, err := s.consistency.Verify(r.Context())
	if err != nil {
		s.logger.Warn("Pre-ask verification failed", zap.Error(err))
		return
	}
	if report.Consistent() {
		return
	}

	s.logger.Info("Index gaps detected before ask, backfilling",
		zap.Strings("missing", report.Missing))
	if _, err := s.consistency.Backfill(r.Context()); err != nil {
		s.logger.Warn("Pre-ask backfill failed", zap.Error(err))
	}
}

// Verify handles GET /qa/verify.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := s.consistency.Verify(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Backfill handles POST /qa/backfill.
func (s *Server) Backfill(w http.ResponseWriter, r *http.Request) {
	report, err := s.consistency.Backfill(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrIndexNotFound,
		domain.ErrUnsupportedFileType,
		domain.ErrEmptyQuery,
		domain.ErrNoEmbeddingsCreated,
		domain.ErrVectorDimMismatch,
		domain.ErrIndexCorrupted,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrExtractionFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
