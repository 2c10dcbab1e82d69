package llm

import (
	"context"
	"fmt"
	"time"
)

// Embedder produces fixed-dimension vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// ProviderConfig selects and configures the embedding and generation backends.
type ProviderConfig struct {
	Provider string // "remote" (OpenAI) or "local" (Ollama)
	APIKey   string

	OpenAIBaseURL        string
	OpenAIChatModel      string
	OpenAIEmbeddingModel string

	OllamaBaseURL        string
	OllamaChatModel      string
	OllamaEmbeddingModel string

	Temperature float64
	Timeout     time.Duration
	BatchSize   int
	RateLimit   float64 // remote embedding requests per second, 0 = unlimited
}

// Providers holds the backends chosen for a session.
type Providers struct {
	Embedder  Embedder
	Generator *Client
}

// NewProviders builds the embedder and chat client for cfg.Provider.
// The choice is made once here; callers only see the interfaces.
func NewProviders(cfg ProviderConfig) (*Providers, error) {
	switch cfg.Provider {
	case "remote":
		if cfg.APIKey == "" {
			return nil, &ProviderError{Kind: ErrEmbeddingUnavailable, Provider: "openai", Op: OpEmbed, Cause: fmt.Errorf("missing API credential")}
		}
		embedder := NewEmbeddingsClient(cfg.OpenAIBaseURL, cfg.APIKey, cfg.OpenAIEmbeddingModel,
			WithBatchSize(cfg.BatchSize),
			WithRateLimit(cfg.RateLimit),
			WithTimeout(cfg.Timeout),
		)
		gen := NewClient(cfg.OpenAIBaseURL, cfg.APIKey, cfg.OpenAIChatModel, cfg.Temperature, cfg.Timeout)
		return &Providers{Embedder: embedder, Generator: gen}, nil

	case "local":
		embedder := NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbeddingModel, cfg.BatchSize, cfg.Timeout)
		gen := NewClient(cfg.OllamaBaseURL, "", cfg.OllamaChatModel, cfg.Temperature, cfg.Timeout)
		gen.Provider = "ollama"
		return &Providers{Embedder: embedder, Generator: gen}, nil
	}

	return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
}
