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

// Client is a client for OpenAI-compatible chat completions APIs.
// Both OpenAI and Ollama (under /v1) speak this protocol.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Provider    string // Label used in errors and logs
	timeout     time.Duration
	client      *http.Client
}

// NewClient creates a new chat client. A zero timeout disables the per-call deadline.
func NewClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		Provider:    "openai",
		timeout:     timeout,
		client:      http.DefaultClient,
	}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate returns the completion for messages using the client's model and temperature.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	payload := ChatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", transportError(ctx, c.Provider, OpGenerate, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", statusError(c.Provider, OpGenerate, resp, raw)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", transportError(ctx, c.Provider, OpGenerate, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", &ProviderError{Kind: ErrGenerationUnavailable, Provider: c.Provider, Op: OpGenerate, Cause: fmt.Errorf("no choices returned")}
	}

	logger.DebugContext(ctx, "chat completion finished",
		"provider", c.Provider,
		"model", payload.Model,
		"messages", len(messages),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chatResp.Choices[0].Message.Content, nil
}

// Ping checks that the chat endpoint is reachable by listing models.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(ctx, c.Provider, OpGenerate, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return statusError(c.Provider, OpGenerate, resp, raw)
	}
	return nil
}
