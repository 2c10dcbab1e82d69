package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docchat/internal/contextutil"
	"docchat/internal/rag"
	"docchat/internal/service"
)

// AskHandler handles HTTP requests for questions about the ingested documents.
type AskHandler struct {
	assistant service.AssistantService
	markdown  goldmark.Markdown
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(assistant service.AssistantService) *AskHandler {
	return &AskHandler{
		assistant: assistant,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
		),
	}
}

// AskRequest represents the HTTP request payload for a question.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse represents the HTTP response payload for a question.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// AnswerHTML is the answer rendered from markdown (only with ?format=html).
	AnswerHTML string `json:"answer_html,omitempty"`

	// Question is the text used for retrieval.
	Question string `json:"question"`

	// Sources are the retrieved chunks, most similar first.
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse is one retrieved chunk.
type SourceResponse struct {
	Rank    int     `json:"rank"`
	Source  string  `json:"source"`
	ChunkID string  `json:"chunk_id"`
	Index   int     `json:"index"`
	Score   float32 `json:"score"`
	Snippet string  `json:"snippet"`
}

const snippetLength = 240

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/ask askQuestion
//
// Answers a question using the ingested documents and the conversation so far.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.assistant.Ask(ctx, service.AskRequest{Question: req.Question})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	resp := AskResponse{
		Answer:   result.Answer,
		Question: result.Question,
		Sources:  sourceResponses(result.Sources),
	}

	if r.URL.Query().Get("format") == "html" {
		rendered, err := h.renderMarkdown(result.Answer)
		if err != nil {
			logger.WarnContext(ctx, "failed to render answer markdown", "error", err)
		} else {
			resp.AnswerHTML = rendered
		}
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *AskHandler) renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func sourceResponses(sources []rag.ScoredChunk) []SourceResponse {
	out := make([]SourceResponse, len(sources))
	for i, s := range sources {
		snippet := []rune(s.Text)
		if len(snippet) > snippetLength {
			snippet = append(snippet[:snippetLength], '…')
		}
		out[i] = SourceResponse{
			Rank:    s.Rank,
			Source:  s.Source,
			ChunkID: s.ChunkID,
			Index:   s.Index,
			Score:   s.Score,
			Snippet: string(snippet),
		}
	}
	return out
}
