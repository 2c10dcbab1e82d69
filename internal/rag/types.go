package rag

import (
	"docchat/internal/indexer"
	"docchat/internal/vectorstore"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	// RoleQuestion is a user question.
	RoleQuestion Role = "question"
	// RoleAnswer is a generated answer.
	RoleAnswer Role = "answer"
)

// Turn is one entry of the conversation log.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	// Seq is assigned on append and strictly increases (starts at 1).
	Seq int `json:"seq"`
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	// ChunkID is "<document id>:<index>".
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	// Source is the name of the uploaded file.
	Source string `json:"source"`
	// Index is the chunk position within its document.
	Index int `json:"index"`
	// Start and End are character offsets into the document text.
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	// Score is the cosine similarity to the query.
	Score float32 `json:"score"`
	// Rank is the 1-based position in the result list.
	Rank int `json:"rank"`
}

// IngestResult reports what an ingestion produced.
type IngestResult struct {
	Documents int                   `json:"documents"`
	Chunks    int                   `json:"chunks"`
	Skipped   []indexer.SkippedFile `json:"skipped"`
}

// AnswerResult is the outcome of one question.
type AnswerResult struct {
	Answer string `json:"answer"`
	// Question is the text that was embedded for retrieval; it differs from the
	// asked question only when follow-up condensing is enabled.
	Question string        `json:"question"`
	Sources  []ScoredChunk `json:"sources"`
}

func scoredChunks(results []vectorstore.Result) []ScoredChunk {
	out := make([]ScoredChunk, len(results))
	for i, r := range results {
		out[i] = ScoredChunk{
			ChunkID:    r.Chunk.ID,
			DocumentID: r.Chunk.DocumentID,
			Source:     r.Chunk.Source,
			Index:      r.Chunk.Index,
			Start:      r.Chunk.Start,
			End:        r.Chunk.End,
			Text:       r.Chunk.Text,
			Score:      r.Score,
			Rank:       i + 1,
		}
	}
	return out
}
