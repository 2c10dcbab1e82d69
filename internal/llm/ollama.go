package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docchat/internal/contextutil"
)

// OllamaEmbedder embeds text with a locally hosted Ollama model via /api/embed.
// The first call after startup can be slow while Ollama loads the model.
type OllamaEmbedder struct {
	BaseURL   string
	Model     string
	BatchSize int
	timeout   time.Duration
	client    *http.Client
}

// NewOllamaEmbedder creates an embedder for the Ollama daemon at baseURL.
func NewOllamaEmbedder(baseURL, model string, batchSize int, timeout time.Duration) *OllamaEmbedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OllamaEmbedder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		BatchSize: batchSize,
		timeout:   timeout,
		client:    http.DefaultClient,
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// ModelName identifies the embedding space.
func (e *OllamaEmbedder) ModelName() string {
	return "ollama/" + e.Model
}

// Embed returns the embedding of a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text, in input order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.BatchSize {
		end := start + e.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := e.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vecs...)
		logger.DebugContext(ctx, "embedded batch", "model", e.Model, "from", start, "to", end)
	}
	return result, nil
}

func (e *OllamaEmbedder) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, "ollama", OpEmbed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, statusError("ollama", OpEmbed, resp, raw)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, transportError(ctx, "ollama", OpEmbed, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(out.Embeddings) != len(texts) {
		return nil, &ProviderError{
			Kind:     ErrEmbeddingUnavailable,
			Provider: "ollama",
			Op:       OpEmbed,
			Cause:    fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)),
		}
	}

	result := make([][]float32, len(out.Embeddings))
	for i, v := range out.Embeddings {
		result[i] = toFloat32(v)
	}
	return result, nil
}
