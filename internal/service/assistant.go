package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session.go -package=mocks docchat/internal/service Session
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_assistant_service.go -package=mocks -mock_names=AssistantService=MockAssistantService docchat/internal/service AssistantService

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/rag"
)

// MaxQuestionLength is the longest accepted question, in characters.
const MaxQuestionLength = 4000

// Session is the document session as seen by the service layer.
type Session interface {
	Ingest(ctx context.Context, docs []indexer.Document) (rag.IngestResult, error)
	Answer(ctx context.Context, question string) (rag.AnswerResult, error)
	History() []rag.Turn
	ClearHistory()
	Ready() bool
}

// IngestRequest carries uploaded files.
type IngestRequest struct {
	Files []indexer.File
}

// AskRequest carries one question.
type AskRequest struct {
	Question string
}

// Status describes whether questions can be answered.
type Status struct {
	Ready        bool
	HistoryTurns int
}

// AssistantService turns uploads into a searchable corpus and answers questions about it.
type AssistantService interface {
	// Ingest extracts the files and replaces the corpus with them.
	Ingest(ctx context.Context, req IngestRequest) (rag.IngestResult, error)
	// Ask answers a question using the corpus and the conversation so far.
	Ask(ctx context.Context, req AskRequest) (rag.AnswerResult, error)
	History(ctx context.Context) []rag.Turn
	ClearHistory(ctx context.Context)
	Status(ctx context.Context) Status
}

type assistantService struct {
	session   Session
	extractor indexer.TextExtractor
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(session Session, extractor indexer.TextExtractor) AssistantService {
	return &assistantService{
		session:   session,
		extractor: extractor,
	}
}

// Ingest loads the files and hands the documents to the session.
// Files that could not be extracted are reported in the result's Skipped list.
func (s *assistantService) Ingest(ctx context.Context, req IngestRequest) (rag.IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(req.Files) == 0 {
		logger.WarnContext(ctx, "ingest request without files")
		return rag.IngestResult{}, &ValidationError{
			Field:   "files",
			Message: "at least one file is required",
		}
	}

	docs, skipped, err := indexer.LoadFiles(ctx, s.extractor, req.Files)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load files", "error", err)
		return rag.IngestResult{}, WrapError(err, "failed to load files")
	}

	result, err := s.session.Ingest(ctx, docs)
	if err != nil {
		logger.ErrorContext(ctx, "failed to ingest documents", "error", err)
		return rag.IngestResult{}, WrapError(err, "failed to ingest documents")
	}

	result.Skipped = append(result.Skipped, skipped...)
	logger.InfoContext(ctx, "ingest request processed successfully",
		"files", len(req.Files),
		"documents", result.Documents,
		"chunks", result.Chunks,
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// Ask validates the question and asks the session.
func (s *assistantService) Ask(ctx context.Context, req AskRequest) (rag.AnswerResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in ask request")
		return rag.AnswerResult{}, &ValidationError{
			Field:   "question",
			Message: "cannot be empty",
		}
	}
	if n := utf8.RuneCountInString(question); n > MaxQuestionLength {
		logger.WarnContext(ctx, "question too long", "length", n)
		return rag.AnswerResult{}, &ValidationError{
			Field:   "question",
			Message: fmt.Sprintf("must be at most %d characters", MaxQuestionLength),
		}
	}

	result, err := s.session.Answer(ctx, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		return rag.AnswerResult{}, WrapError(err, "failed to answer question")
	}

	logger.InfoContext(ctx, "ask request processed successfully", "question_length", len(question), "sources", len(result.Sources))
	return result, nil
}

func (s *assistantService) History(ctx context.Context) []rag.Turn {
	return s.session.History()
}

func (s *assistantService) ClearHistory(ctx context.Context) {
	s.session.ClearHistory()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "conversation history cleared")
}

func (s *assistantService) Status(ctx context.Context) Status {
	return Status{
		Ready:        s.session.Ready(),
		HistoryTurns: len(s.session.History()),
	}
}
