package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_providers.go -package=mocks docchat/internal/rag Embedder,Generator

import (
	"context"

	"docchat/internal/llm"
)

// Embedder turns text into vectors. All vectors from one Embedder share a dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// ModelName identifies the embedding space; it is stored with the index.
	ModelName() string
}

// Generator produces a completion for a chat conversation.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}
