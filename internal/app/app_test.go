package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/app"
	"docchat/internal/config"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/service"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var vocabulary = []string{"cat", "mat", "rust", "safety", "language"}

// fakeOllama serves /api/embed with keyword-count vectors and a fixed chat completion.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		embeddings := make([][]float64, len(req.Input))
		for i, text := range req.Input {
			lower := strings.ToLower(text)
			vec := make([]float64, len(vocabulary)+1)
			for j, word := range vocabulary {
				vec[j] = float64(strings.Count(lower, word))
			}
			vec[len(vocabulary)] = 0.1
			embeddings[i] = vec
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embeddings})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(llm.ChatResponse{
			Choices: []llm.ChatChoice{{Message: llm.Message{Role: llm.RoleAssistant, Content: "It sat on the mat."}}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func localConfig(baseURL, backend, dir string) *config.Config {
	cfg := config.Default()
	cfg.ModelProvider = config.ProviderLocal
	cfg.OllamaBaseURL = baseURL
	cfg.IndexBackend = backend
	cfg.PersistDirectory = dir
	return cfg
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := localConfig("http://localhost:11434", "chroma", t.TempDir())

	_, err := app.New(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestNew_RemoteWithoutCredential(t *testing.T) {
	cfg := config.Default()
	cfg.IndexBackend = config.BackendMemory

	_, err := app.New(context.Background(), cfg)
	assert.ErrorIs(t, err, llm.ErrEmbeddingUnavailable)
}

func TestNew_MemoryBackendStartsNotReady(t *testing.T) {
	server := fakeOllama(t)
	a, err := app.New(context.Background(), localConfig(server.URL, config.BackendMemory, ""))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.False(t, a.Session.Ready())
	assert.Equal(t, "ollama/llama3", a.Providers.Embedder.ModelName())
}

func TestApp_IngestAskAndResume(t *testing.T) {
	for _, backend := range []string{config.BackendBolt, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			server := fakeOllama(t)
			dir := t.TempDir()
			cfg := localConfig(server.URL, backend, dir)

			a, err := app.New(ctx, cfg)
			require.NoError(t, err)
			require.False(t, a.Session.Ready())

			result, err := a.Assistant.Ingest(ctx, service.IngestRequest{Files: []indexer.File{
				{Name: "a.txt", Data: []byte("The cat sat on the mat.")},
				{Name: "b.txt", Data: []byte("Rust is a systems programming language focused on safety.")},
			}})
			require.NoError(t, err)
			assert.Equal(t, 2, result.Documents)
			assert.Equal(t, 2, result.Chunks)

			answer, err := a.Assistant.Ask(ctx, service.AskRequest{Question: "What did the cat do?"})
			require.NoError(t, err)
			assert.Equal(t, "It sat on the mat.", answer.Answer)
			require.NotEmpty(t, answer.Sources)
			assert.Equal(t, "a.txt", answer.Sources[0].Source)
			require.NoError(t, a.Close())

			reopened, err := app.New(ctx, cfg)
			require.NoError(t, err)
			defer func() { _ = reopened.Close() }()

			assert.True(t, reopened.Session.Ready(), "session should resume from the durable index")
			assert.Empty(t, reopened.Session.History())

			again, err := reopened.Assistant.Ask(ctx, service.AskRequest{Question: "What did the cat do?"})
			require.NoError(t, err)
			assert.Equal(t, "a.txt", again.Sources[0].Source)
		})
	}
}

func TestApp_ResumeRejectsOtherModel(t *testing.T) {
	ctx := context.Background()
	server := fakeOllama(t)
	dir := t.TempDir()

	cfg := localConfig(server.URL, config.BackendBolt, dir)
	a, err := app.New(ctx, cfg)
	require.NoError(t, err)
	_, err = a.Assistant.Ingest(ctx, service.IngestRequest{Files: []indexer.File{
		{Name: "a.txt", Data: []byte("The cat sat on the mat.")},
	}})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	cfg.OllamaEmbeddingModel = "nomic-embed-text"
	reopened, err := app.New(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	assert.False(t, reopened.Session.Ready())
}

func TestApp_WarmUp(t *testing.T) {
	var loaded []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ps", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	record := func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		loaded = append(loaded, r.URL.Path+" "+req["model"])
		_, _ = w.Write([]byte(`{}`))
	}
	mux.HandleFunc("/api/embed", record)
	mux.HandleFunc("/api/generate", record)
	server := httptest.NewServer(mux)
	defer server.Close()

	a, err := app.New(context.Background(), localConfig(server.URL, config.BackendMemory, ""))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NoError(t, a.WarmUp(context.Background()))
	assert.Equal(t, []string{"/api/embed llama3", "/api/generate llama3"}, loaded)
}
