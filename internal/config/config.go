package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration is the sentinel wrapped by every configuration failure.
var ErrConfiguration = errors.New("configuration error")

// FieldError reports an invalid or missing configuration value.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match FieldError against ErrConfiguration.
func (e *FieldError) Unwrap() error {
	return ErrConfiguration
}

// Provider selects the embedding and generation backend.
type Provider string

const (
	ProviderRemote Provider = "remote"
	ProviderLocal  Provider = "local"
)

// Index backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	ModelProvider    Provider `yaml:"model_provider"`
	APICredential    string   `yaml:"api_credential"`
	ChunkSize        int      `yaml:"chunk_size"`
	ChunkOverlap     int      `yaml:"chunk_overlap"`
	RetrievalK       int      `yaml:"retrieval_k"`
	PersistDirectory string   `yaml:"persist_directory"`
	IndexBackend     string   `yaml:"index_backend"`

	MaxHistoryTurns  int     `yaml:"max_history_turns"`
	CondenseQuestion bool    `yaml:"condense_question"`
	Temperature      float64 `yaml:"temperature"`

	ProviderTimeout      time.Duration `yaml:"provider_timeout"`
	LocalProviderTimeout time.Duration `yaml:"local_provider_timeout"`

	OpenAIBaseURL        string `yaml:"openai_base_url"`
	OpenAIChatModel      string `yaml:"openai_chat_model"`
	OpenAIEmbeddingModel string `yaml:"openai_embedding_model"`

	OllamaBaseURL        string `yaml:"ollama_base_url"`
	OllamaChatModel      string `yaml:"ollama_chat_model"`
	OllamaEmbeddingModel string `yaml:"ollama_embedding_model"`

	EmbeddingBatchSize int     `yaml:"embedding_batch_size"`
	EmbeddingRateLimit float64 `yaml:"embedding_rate_limit"`

	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`

	PDFLicenseKey string `yaml:"pdf_license_key"`

	APIPort      string     `yaml:"api_port"`
	LogLevelName string     `yaml:"log_level"`
	LogFormat    string     `yaml:"log_format"`
	LogLevel     slog.Level `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		ModelProvider:        ProviderRemote,
		ChunkSize:            1000,
		ChunkOverlap:         200,
		RetrievalK:           4,
		PersistDirectory:     "./chroma_db",
		IndexBackend:         BackendBolt,
		MaxHistoryTurns:      10,
		Temperature:          0.5,
		ProviderTimeout:      60 * time.Second,
		LocalProviderTimeout: 5 * time.Minute,
		OpenAIBaseURL:        "https://api.openai.com",
		OpenAIChatModel:      "gpt-3.5-turbo",
		OpenAIEmbeddingModel: "text-embedding-ada-002",
		OllamaBaseURL:        "http://localhost:11434",
		OllamaChatModel:      "llama3",
		OllamaEmbeddingModel: "llama3",
		EmbeddingBatchSize:   100,
		QdrantURL:            "http://localhost:6333",
		QdrantCollection:     "docchat",
		APIPort:              "9000",
		LogLevelName:         "info",
		LogFormat:            "text",
		LogLevel:             slog.LevelInfo,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// If path is empty, DOCCHAT_CONFIG names the file; with neither set no file is read.
// Environment variables take precedence over file values. A .env file in the working
// directory or one of its parents is loaded first; variables already set are not replaced.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	if path == "" {
		path = os.Getenv("DOCCHAT_CONFIG")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, searching at most five directories up.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FieldError{Field: "config_file", Message: err.Error()}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &FieldError{Field: "config_file", Message: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("MODEL_PROVIDER", ""); v != "" {
		c.ModelProvider = Provider(v)
	}
	c.APICredential = getEnv("OPENAI_API_KEY", c.APICredential)
	c.PersistDirectory = getEnv("PERSIST_DIRECTORY", c.PersistDirectory)
	c.IndexBackend = getEnv("INDEX_BACKEND", c.IndexBackend)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIChatModel = getEnv("OPENAI_CHAT_MODEL", c.OpenAIChatModel)
	c.OpenAIEmbeddingModel = getEnv("OPENAI_EMBEDDING_MODEL", c.OpenAIEmbeddingModel)
	c.OllamaBaseURL = getEnv("OLLAMA_BASE_URL", c.OllamaBaseURL)
	c.OllamaChatModel = getEnv("OLLAMA_CHAT_MODEL", c.OllamaChatModel)
	c.OllamaEmbeddingModel = getEnv("OLLAMA_EMBEDDING_MODEL", c.OllamaEmbeddingModel)
	c.QdrantURL = getEnv("QDRANT_URL", c.QdrantURL)
	c.QdrantCollection = getEnv("QDRANT_COLLECTION", c.QdrantCollection)
	c.PDFLicenseKey = getEnv("UNIDOC_LICENSE_KEY", c.PDFLicenseKey)
	c.APIPort = getEnv("API_PORT", c.APIPort)
	c.LogLevelName = getEnv("LOG_LEVEL", c.LogLevelName)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	ints := []struct {
		key string
		dst *int
	}{
		{"CHUNK_SIZE", &c.ChunkSize},
		{"CHUNK_OVERLAP", &c.ChunkOverlap},
		{"RETRIEVAL_K", &c.RetrievalK},
		{"MAX_HISTORY_TURNS", &c.MaxHistoryTurns},
		{"EMBEDDING_BATCH_SIZE", &c.EmbeddingBatchSize},
	}
	for _, f := range ints {
		if err := envInt(f.key, f.dst); err != nil {
			return err
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"TEMPERATURE", &c.Temperature},
		{"EMBEDDING_RATE_LIMIT", &c.EmbeddingRateLimit},
	}
	for _, f := range floats {
		if err := envFloat(f.key, f.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PROVIDER_TIMEOUT", &c.ProviderTimeout},
		{"LOCAL_PROVIDER_TIMEOUT", &c.LocalProviderTimeout},
	}
	for _, f := range durations {
		if err := envDuration(f.key, f.dst); err != nil {
			return err
		}
	}

	if v := getEnv("CONDENSE_QUESTION", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &FieldError{Field: "CONDENSE_QUESTION", Message: "must be a boolean"}
		}
		c.CondenseQuestion = b
	}

	return nil
}

// Validate normalises provider aliases and checks every constraint.
func (c *Config) Validate() error {
	switch Provider(strings.ToLower(string(c.ModelProvider))) {
	case ProviderRemote, "openai":
		c.ModelProvider = ProviderRemote
	case ProviderLocal, "ollama":
		c.ModelProvider = ProviderLocal
	default:
		return &FieldError{Field: "model_provider", Message: fmt.Sprintf("unknown provider %q (want remote or local)", c.ModelProvider)}
	}

	if c.ModelProvider == ProviderRemote && c.APICredential == "" {
		return &FieldError{Field: "api_credential", Message: "required when model_provider is remote"}
	}
	if c.ChunkSize <= 0 {
		return &FieldError{Field: "chunk_size", Message: "must be greater than 0"}
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return &FieldError{Field: "chunk_overlap", Message: fmt.Sprintf("must be in [0, %d)", c.ChunkSize)}
	}
	if c.RetrievalK <= 0 {
		return &FieldError{Field: "retrieval_k", Message: "must be greater than 0"}
	}
	if c.MaxHistoryTurns < 0 {
		return &FieldError{Field: "max_history_turns", Message: "must not be negative"}
	}
	if c.EmbeddingBatchSize <= 0 {
		return &FieldError{Field: "embedding_batch_size", Message: "must be greater than 0"}
	}
	if c.EmbeddingRateLimit < 0 {
		return &FieldError{Field: "embedding_rate_limit", Message: "must not be negative"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &FieldError{Field: "temperature", Message: "must be in [0, 2]"}
	}
	if c.ProviderTimeout <= 0 || c.LocalProviderTimeout <= 0 {
		return &FieldError{Field: "provider_timeout", Message: "must be greater than 0"}
	}

	switch c.IndexBackend {
	case BackendMemory, BackendQdrant:
	case BackendBolt, BackendSQLite:
		if c.PersistDirectory == "" {
			return &FieldError{Field: "persist_directory", Message: "required for durable index backends"}
		}
	default:
		return &FieldError{Field: "index_backend", Message: fmt.Sprintf("unknown backend %q", c.IndexBackend)}
	}

	level, err := parseLevel(c.LogLevelName)
	if err != nil {
		return err
	}
	c.LogLevel = level

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return &FieldError{Field: "log_format", Message: "must be json or text"}
	}

	return nil
}

// Timeout returns the per-call timeout for the selected provider.
func (c *Config) Timeout() time.Duration {
	if c.ModelProvider == ProviderLocal {
		return c.LocalProviderTimeout
	}
	return c.ProviderTimeout
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, &FieldError{Field: "log_level", Message: fmt.Sprintf("unknown level %q", name)}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &FieldError{Field: key, Message: "must be a valid integer"}
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return &FieldError{Field: key, Message: "must be a number"}
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return &FieldError{Field: key, Message: "must be a duration such as 30s"}
	}
	*dst = d
	return nil
}
