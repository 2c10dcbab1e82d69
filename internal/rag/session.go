package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/vectorstore"
)

var (
	// ErrNotReady is returned by Answer before a successful Ingest or Resume.
	ErrNotReady = errors.New("session not ready: ingest documents first")
	// ErrEmptyQuestion is returned by Answer for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Options configures a Session.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// K is the number of chunks retrieved per question.
	K int
	// MaxHistoryTurns bounds the turns sent with each question. 0 sends none.
	MaxHistoryTurns int
	// CondenseQuestion rewrites follow-ups into standalone questions before retrieval.
	CondenseQuestion bool
}

// Session owns one index and one conversation. Ingest and Answer are
// serialized, so an answer never sees a half-built index.
type Session struct {
	embedder  Embedder
	generator Generator
	index     vectorstore.Index
	memory    *ConversationMemory
	chunker   *indexer.Chunker
	opts      Options

	mu    sync.Mutex
	ready atomic.Bool
}

// NewSession creates a not-ready session. Invalid chunk parameters or K are
// reported as indexer.ErrInvalidChunkParams and ErrInvalidK.
func NewSession(embedder Embedder, generator Generator, index vectorstore.Index, opts Options) (*Session, error) {
	chunker, err := indexer.NewChunker(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("retrieval k %d: %w", opts.K, vectorstore.ErrInvalidK)
	}

	return &Session{
		embedder:  embedder,
		generator: generator,
		index:     index,
		memory:    NewConversationMemory(),
		chunker:   chunker,
		opts:      opts,
	}, nil
}

// Ready reports whether Answer may be called.
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// History returns the conversation so far.
func (s *Session) History() []Turn {
	return s.memory.History()
}

// ClearHistory discards the conversation but keeps the index.
func (s *Session) ClearHistory() {
	s.memory.Clear()
}

// Ingest replaces the corpus with docs using the configured chunk parameters.
func (s *Session) Ingest(ctx context.Context, docs []indexer.Document) (IngestResult, error) {
	return s.ingest(ctx, docs, s.chunker)
}

// IngestWith is Ingest with explicit chunk parameters.
func (s *Session) IngestWith(ctx context.Context, docs []indexer.Document, maxSize, overlap int) (IngestResult, error) {
	chunker, err := indexer.NewChunker(maxSize, overlap)
	if err != nil {
		return IngestResult{}, err
	}
	return s.ingest(ctx, docs, chunker)
}

// ingest chunks and embeds everything before touching the index, then swaps
// the index content in one step. Any failure leaves the previous corpus,
// conversation and ready flag as they were.
func (s *Session) ingest(ctx context.Context, docs []indexer.Document, chunker *indexer.Chunker) (IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	var chunks []indexer.Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunker.Chunk(doc)...)
	}
	logger.InfoContext(ctx, "documents chunked", "documents", len(docs), "chunks", len(chunks))

	entries := make([]vectorstore.Entry, len(chunks))
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.ErrorContext(ctx, "failed to embed chunks", "chunks", len(chunks), "error", err)
			return IngestResult{}, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return IngestResult{}, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
		}
		for i := range chunks {
			entries[i] = vectorstore.Entry{Chunk: chunks[i], Vector: vectors[i]}
		}
	}

	if err := ctx.Err(); err != nil {
		return IngestResult{}, err
	}

	if err := s.index.Replace(ctx, entries, s.embedder.ModelName()); err != nil {
		logger.ErrorContext(ctx, "failed to replace index", "error", err)
		return IngestResult{}, fmt.Errorf("failed to index chunks: %w", err)
	}

	s.memory.Clear()
	s.ready.Store(true)

	logger.InfoContext(ctx, "ingestion completed", "documents", len(docs), "chunks", len(chunks), "model", s.embedder.ModelName())
	return IngestResult{Documents: len(docs), Chunks: len(chunks), Skipped: []indexer.SkippedFile{}}, nil
}

// Resume marks the session ready when the index was last built by an ingest
// with the current embedding model, even if that corpus was empty. A reset or
// never-built index has no fingerprint. It reports whether the session is ready.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.index.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count index entries: %w", err)
	}
	fingerprint, err := s.index.Fingerprint(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read index fingerprint: %w", err)
	}

	if fingerprint == "" {
		logger.InfoContext(ctx, "durable index has never been built, ingestion required")
		return s.ready.Load(), nil
	}
	if fingerprint != s.embedder.ModelName() {
		logger.WarnContext(ctx, "durable index was built with another embedding model, ingestion required",
			"index_model", fingerprint,
			"current_model", s.embedder.ModelName(),
		)
		return s.ready.Load(), nil
	}

	s.ready.Store(true)
	logger.InfoContext(ctx, "resumed from durable index", "entries", count, "model", fingerprint)
	return true, nil
}

// Reset empties the index and the conversation and makes the session not ready.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	s.memory.Clear()
	s.ready.Store(false)
	return nil
}

// Answer retrieves the passages most similar to question, asks the generator
// with them and the recent conversation, and records the exchange.
// Nothing is recorded when any step fails.
func (s *Session) Answer(ctx context.Context, question string) (AnswerResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready.Load() {
		return AnswerResult{}, ErrNotReady
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerResult{}, ErrEmptyQuestion
	}

	history := s.memory.Recent(s.opts.MaxHistoryTurns)

	standalone := question
	if s.opts.CondenseQuestion && len(history) > 0 {
		rewritten, err := s.generator.Generate(ctx, BuildCondenseMessages(history, question))
		if err != nil {
			logger.ErrorContext(ctx, "failed to condense question", "error", err)
			return AnswerResult{}, fmt.Errorf("failed to condense question: %w", err)
		}
		if rewritten = strings.TrimSpace(rewritten); rewritten != "" {
			standalone = rewritten
		}
		logger.DebugContext(ctx, "condensed question", "question", question, "standalone", standalone)
	}

	vector, err := s.embedder.Embed(ctx, standalone)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return AnswerResult{}, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.index.Query(ctx, vector, s.opts.K)
	if err != nil {
		logger.ErrorContext(ctx, "failed to query index", "error", err)
		return AnswerResult{}, fmt.Errorf("failed to query index: %w", err)
	}
	sources := scoredChunks(results)

	if len(sources) > 0 {
		logger.DebugContext(ctx, "retrieved chunks", "count", len(sources), "top_score", sources[0].Score, "top_source", sources[0].Source)
	}

	answer, err := s.generator.Generate(ctx, BuildMessages(history, sources, question))
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		return AnswerResult{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return AnswerResult{}, err
	}
	if err := s.memory.AppendExchange(question, answer); err != nil {
		return AnswerResult{}, err
	}

	logger.InfoContext(ctx, "question answered",
		"question_length", len(question),
		"chunks_used", len(sources),
		"history_turns", len(history),
		"answer_length", len(answer),
	)
	return AnswerResult{Answer: answer, Question: standalone, Sources: sources}, nil
}
