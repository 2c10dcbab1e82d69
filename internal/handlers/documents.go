package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/service"
)

// DefaultMaxUploadBytes bounds the size of one upload request.
const DefaultMaxUploadBytes = 64 << 20

// DocumentsHandler accepts multipart uploads and replaces the corpus with them.
type DocumentsHandler struct {
	assistant      service.AssistantService
	maxUploadBytes int64
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(assistant service.AssistantService, maxUploadBytes int64) *DocumentsHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &DocumentsHandler{
		assistant:      assistant,
		maxUploadBytes: maxUploadBytes,
	}
}

// IngestResponse represents the HTTP response payload for an upload.
type IngestResponse struct {
	Documents int                   `json:"documents"`
	Chunks    int                   `json:"chunks"`
	Skipped   []indexer.SkippedFile `json:"skipped"`
}

// ServeHTTP reads every "files" part of a multipart/form-data request.
//
// swagger:route POST /api/documents ingestDocuments
//
// Replaces the indexed corpus with the uploaded .txt and .pdf files.
func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		logger.WarnContext(ctx, "invalid multipart body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	files := make([]indexer.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logger.ErrorContext(ctx, "failed to open uploaded file", "name", fh.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to read uploaded file", "name", fh.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		files = append(files, indexer.File{Name: fh.Filename, Data: data})
	}

	result, err := h.assistant.Ingest(ctx, service.IngestRequest{Files: files})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to ingest documents")
		return
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []indexer.SkippedFile{}
	}
	writeJSON(ctx, w, http.StatusOK, IngestResponse{
		Documents: result.Documents,
		Chunks:    result.Chunks,
		Skipped:   skipped,
	})
}
