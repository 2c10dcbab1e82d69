// Package app builds a ready-to-use document session from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"docchat/internal/config"
	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/service"
	"docchat/internal/vectorstore"
)

// IndexLockTimeout bounds how long opening a bolt index waits for another writer.
const IndexLockTimeout = 5 * time.Second

// App holds the components shared by the HTTP server and the CLI.
type App struct {
	Config    *config.Config
	Providers *llm.Providers
	Index     vectorstore.Index
	Session   *rag.Session
	Extractor *indexer.Extractor
	Assistant service.AssistantService
}

// New selects the providers and index backend named by cfg and builds the session.
// The session is resumed from the durable index when it was built with the
// same embedding model.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)

	providers, err := llm.NewProviders(ProviderConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create model providers: %w", err)
	}
	logger.InfoContext(ctx, "model providers selected",
		"provider", cfg.ModelProvider,
		"embedding_model", providers.Embedder.ModelName(),
		"chat_model", providers.Generator.Model,
	)

	index, err := OpenIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	session, err := rag.NewSession(providers.Embedder, providers.Generator, index, rag.Options{
		ChunkSize:        cfg.ChunkSize,
		ChunkOverlap:     cfg.ChunkOverlap,
		K:                cfg.RetrievalK,
		MaxHistoryTurns:  cfg.MaxHistoryTurns,
		CondenseQuestion: cfg.CondenseQuestion,
	})
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if _, err := session.Resume(ctx); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to resume session: %w", err)
	}

	extractor := indexer.NewExtractor(cfg.PDFLicenseKey)

	return &App{
		Config:    cfg,
		Providers: providers,
		Index:     index,
		Session:   session,
		Extractor: extractor,
		Assistant: service.NewAssistantService(session, extractor),
	}, nil
}

// ProviderConfig maps the application configuration onto provider settings.
func ProviderConfig(cfg *config.Config) llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:             string(cfg.ModelProvider),
		APIKey:               cfg.APICredential,
		OpenAIBaseURL:        cfg.OpenAIBaseURL,
		OpenAIChatModel:      cfg.OpenAIChatModel,
		OpenAIEmbeddingModel: cfg.OpenAIEmbeddingModel,
		OllamaBaseURL:        cfg.OllamaBaseURL,
		OllamaChatModel:      cfg.OllamaChatModel,
		OllamaEmbeddingModel: cfg.OllamaEmbeddingModel,
		Temperature:          cfg.Temperature,
		Timeout:              cfg.Timeout(),
		BatchSize:            cfg.EmbeddingBatchSize,
		RateLimit:            cfg.EmbeddingRateLimit,
	}
}

// OpenIndex opens the index backend named by cfg.IndexBackend.
func OpenIndex(ctx context.Context, cfg *config.Config) (vectorstore.Index, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch cfg.IndexBackend {
	case config.BackendMemory:
		logger.InfoContext(ctx, "using in-memory index")
		return vectorstore.NewMemoryIndex(), nil

	case config.BackendBolt:
		idx, err := vectorstore.NewBoltIndex(cfg.PersistDirectory, IndexLockTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt index in %s: %w", cfg.PersistDirectory, err)
		}
		logger.InfoContext(ctx, "bolt index opened", "dir", cfg.PersistDirectory)
		return idx, nil

	case config.BackendSQLite:
		idx, err := vectorstore.NewSQLiteIndex(ctx, cfg.PersistDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite index in %s: %w", cfg.PersistDirectory, err)
		}
		logger.InfoContext(ctx, "sqlite index opened", "dir", cfg.PersistDirectory)
		return idx, nil

	case config.BackendQdrant:
		idx, err := vectorstore.NewQdrantIndex(ctx, cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to open qdrant index at %s: %w", cfg.QdrantURL, err)
		}
		logger.InfoContext(ctx, "qdrant index opened", "url", cfg.QdrantURL, "collection", cfg.QdrantCollection)
		return idx, nil
	}

	return nil, &config.FieldError{Field: "index_backend", Message: fmt.Sprintf("unknown backend %q", cfg.IndexBackend)}
}

// WarmUp preloads the local models so the first question does not wait for them.
// It does nothing for the remote provider.
func (a *App) WarmUp(ctx context.Context) error {
	if a.Config.ModelProvider != config.ProviderLocal {
		return nil
	}

	loader := llm.NewModelLoader(a.Config.OllamaBaseURL)
	if err := loader.LoadModel(ctx, a.Config.OllamaEmbeddingModel, true); err != nil {
		return fmt.Errorf("failed to load embedding model %s: %w", a.Config.OllamaEmbeddingModel, err)
	}
	if err := loader.LoadModel(ctx, a.Config.OllamaChatModel, false); err != nil {
		return fmt.Errorf("failed to load chat model %s: %w", a.Config.OllamaChatModel, err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "local models loaded",
		"embedding_model", a.Config.OllamaEmbeddingModel,
		"chat_model", a.Config.OllamaChatModel,
	)
	return nil
}

// Close releases the index.
func (a *App) Close() error {
	if a.Index == nil {
		return nil
	}
	return a.Index.Close()
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// IsLocked reports whether err means another process holds the index.
func IsLocked(err error) bool {
	return errors.Is(err, vectorstore.ErrLocked)
}
