package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docchat/internal/app"
	"docchat/internal/config"
	"docchat/internal/handlers"
	"docchat/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests .txt and .pdf documents and answers questions about them,
// keeping the conversation so follow-up questions have context.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: docchat API
//   description: |
//     Upload documents, then ask questions about them.
//     Answers come with the passages they were based on.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(app.NewLogger(cfg))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.WarmUp(ctx); err != nil {
		slog.Warn("Failed to preload local models", "error", err)
	}
	slog.Info("Session initialized", "ready", a.Session.Ready(), "index_backend", cfg.IndexBackend)

	router := http.NewRouter(&http.Deps{
		Assistant:      a.Assistant,
		Generator:      a.Providers.Generator,
		MaxUploadBytes: handlers.DefaultMaxUploadBytes,
	})

	addr := ":" + cfg.APIPort
	if err := http.Serve(ctx, addr, router); err != nil {
		slog.Error("API server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("API server stopped")
}
