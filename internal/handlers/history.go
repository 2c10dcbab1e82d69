package handlers

import (
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/rag"
	"docchat/internal/service"
)

// HistoryHandler exposes the conversation log.
type HistoryHandler struct {
	assistant service.AssistantService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(assistant service.AssistantService) *HistoryHandler {
	return &HistoryHandler{assistant: assistant}
}

// HistoryResponse lists the turns in order.
type HistoryResponse struct {
	Turns []rag.Turn `json:"turns"`
}

// ServeHTTP returns the history on GET and clears it on DELETE.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		turns := h.assistant.History(ctx)
		if turns == nil {
			turns = []rag.Turn{}
		}
		writeJSON(ctx, w, http.StatusOK, HistoryResponse{Turns: turns})
	case http.MethodDelete:
		h.assistant.ClearHistory(ctx)
		w.WriteHeader(http.StatusNoContent)
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
