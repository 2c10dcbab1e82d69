package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/service"
	"docchat/internal/vectorstore"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "service error", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, indexer.ErrInvalidChunkParams):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, rag.ErrNotReady):
		writeError(w, http.StatusConflict, "No documents ingested yet")
	case errors.Is(err, llm.ErrEmbeddingRateLimited):
		var providerErr *llm.ProviderError
		if errors.As(err, &providerErr) && providerErr.RetryAfter > 0 {
			seconds := int(math.Ceil(providerErr.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		writeError(w, http.StatusTooManyRequests, "Embedding provider rate limit reached")
	case errors.Is(err, llm.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Model provider timed out")
	case errors.Is(err, llm.ErrEmbeddingUnavailable), errors.Is(err, llm.ErrGenerationUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Model provider unavailable")
	case errors.Is(err, vectorstore.ErrLocked):
		writeError(w, http.StatusServiceUnavailable, "Index is locked by another process")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
