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

	"golang.org/x/time/rate"

	"docchat/internal/contextutil"
)

// DefaultBatchSize is the number of texts sent per embeddings request.
const DefaultBatchSize = 100

// EmbeddingsClient is a client for the OpenAI embeddings API.
type EmbeddingsClient struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	timeout   time.Duration
	limiter   *rate.Limiter
	client    *http.Client
}

// EmbeddingsOption configures an EmbeddingsClient.
type EmbeddingsOption func(*EmbeddingsClient)

// WithBatchSize sets the number of texts per request.
func WithBatchSize(n int) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		if n > 0 {
			c.BatchSize = n
		}
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables throttling.
func WithRateLimit(rps float64) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		c.timeout = d
	}
}

// NewEmbeddingsClient creates a new embeddings client.
func NewEmbeddingsClient(baseURL, apiKey, model string, opts ...EmbeddingsOption) *EmbeddingsClient {
	c := &EmbeddingsClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		Model:     model,
		BatchSize: DefaultBatchSize,
		client:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// ModelName identifies the embedding space; vectors from different names must not be mixed.
func (c *EmbeddingsClient) ModelName() string {
	return "openai/" + c.Model
}

// Embed returns the embedding of a single text.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text, in input order.
// Texts are sent in requests of at most BatchSize entries.
func (c *EmbeddingsClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if c.APIKey == "" {
		return nil, &ProviderError{Kind: ErrEmbeddingUnavailable, Provider: "openai", Op: OpEmbed, Cause: fmt.Errorf("missing API credential")}
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.BatchSize {
		end := start + c.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, transportError(ctx, "openai", OpEmbed, err)
			}
		}

		vecs, err := c.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vecs...)
		logger.DebugContext(ctx, "embedded batch", "model", c.Model, "from", start, "to", end)
	}

	return result, nil
}

func (c *EmbeddingsClient) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(EmbeddingsRequest{Model: c.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, "openai", OpEmbed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, statusError("openai", OpEmbed, resp, raw)
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, transportError(ctx, "openai", OpEmbed, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, &ProviderError{
			Kind:     ErrEmbeddingUnavailable,
			Provider: "openai",
			Op:       OpEmbed,
			Cause:    fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data)),
		}
	}

	// The API may return entries out of order; place each by its index.
	result := make([][]float32, len(texts))
	for _, data := range embeddingsResp.Data {
		if data.Index < 0 || data.Index >= len(texts) || result[data.Index] != nil {
			return nil, &ProviderError{Kind: ErrEmbeddingUnavailable, Provider: "openai", Op: OpEmbed, Cause: fmt.Errorf("invalid embedding index %d", data.Index)}
		}
		result[data.Index] = toFloat32(data.Embedding)
	}

	return result, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
