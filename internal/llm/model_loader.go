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
)

// ModelLoader preloads models into a local Ollama daemon so the first real
// request does not pay the load time.
type ModelLoader struct {
	baseURL   string
	keepAlive string
	client    *http.Client
}

// NewModelLoader creates a new model loader.
func NewModelLoader(baseURL string) *ModelLoader {
	return &ModelLoader{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keepAlive: "30m",
		client:    http.DefaultClient,
	}
}

// runningModel is one entry of the /api/ps response.
type runningModel struct {
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	ExpiresAt time.Time `json:"expires_at"`
}

type psResponse struct {
	Models []runningModel `json:"models"`
}

// IsModelLoaded reports whether the model is currently resident in memory.
func (ml *ModelLoader) IsModelLoaded(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ml.baseURL+"/api/ps", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := ml.client.Do(req)
	if err != nil {
		return false, transportError(ctx, "ollama", OpEmbed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var ps psResponse
	if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
		return false, fmt.Errorf("failed to decode ps response: %w", err)
	}

	for _, m := range ps.Models {
		if sameModel(m.Name, modelName) || sameModel(m.Model, modelName) {
			return true, nil
		}
	}
	return false, nil
}

// LoadModel loads a model unless it is already resident.
// Embedding models are loaded through /api/embed, chat models through /api/generate;
// both calls block until the model is in memory.
func (ml *ModelLoader) LoadModel(ctx context.Context, modelName string, embedding bool) error {
	if loaded, err := ml.IsModelLoaded(ctx, modelName); err == nil && loaded {
		return nil
	}

	path := "/api/generate"
	if embedding {
		path = "/api/embed"
	}
	body, err := json.Marshal(map[string]string{
		"model":      modelName,
		"keep_alive": ml.keepAlive,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ml.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	op := OpGenerate
	if embedding {
		op = OpEmbed
	}

	resp, err := ml.client.Do(req)
	if err != nil {
		return transportError(ctx, "ollama", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return statusError("ollama", op, resp, raw)
	}
	return nil
}

// sameModel compares model names, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	if !strings.Contains(a, ":") {
		a += ":latest"
	}
	if !strings.Contains(b, ":") {
		b += ":latest"
	}
	return a == b
}
