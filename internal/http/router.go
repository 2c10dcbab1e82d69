package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docchat/internal/handlers"
	"docchat/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Assistant service.AssistantService
	// Generator is pinged by the health check; nil skips that check.
	Generator      handlers.Pinger
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	documentsHandler := handlers.NewDocumentsHandler(deps.Assistant, deps.MaxUploadBytes)
	askHandler := handlers.NewAskHandler(deps.Assistant)
	historyHandler := handlers.NewHistoryHandler(deps.Assistant)
	healthHandler := handlers.NewHealthHandler(deps.Assistant, deps.Generator)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/documents", documentsHandler)
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/history", historyHandler)
		r.Method(http.MethodDelete, "/history", historyHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
