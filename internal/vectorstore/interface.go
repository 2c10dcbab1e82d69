package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks docchat/internal/vectorstore Index

import (
	"context"
	"errors"

	"docchat/internal/indexer"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	// Recovery requires a Reset.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidK is returned when a query asks for fewer than one result.
	ErrInvalidK = errors.New("k must be greater than 0")
)

// Entry pairs a chunk with its embedding.
// Seq is assigned by the index on insertion; any value set by the caller is ignored.
type Entry struct {
	Chunk  indexer.Chunk
	Vector []float32
	Seq    uint64
}

// Result is one query hit.
type Result struct {
	Chunk indexer.Chunk
	Score float32
	Seq   uint64
}

// Index stores (chunk, vector) pairs and answers k-nearest-neighbour queries
// by cosine similarity. Results are ordered by descending score; equal scores
// are ordered by ascending insertion sequence.
type Index interface {
	// Insert appends entries, assigning each the next sequence number.
	// Fails with ErrDimensionMismatch without storing anything if any vector
	// has a different length than the index.
	Insert(ctx context.Context, entries []Entry) error

	// Query returns at most k results for vector.
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)

	// Reset discards all entries, the dimension and the fingerprint.
	Reset(ctx context.Context) error

	// Replace atomically swaps the whole content for entries and records
	// fingerprint (the embedding model that produced the vectors).
	// On failure the previous content is kept.
	Replace(ctx context.Context, entries []Entry, fingerprint string) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Fingerprint returns the fingerprint recorded by the last Replace, or "".
	Fingerprint(ctx context.Context) (string, error)

	// Close releases the underlying store.
	Close() error
}
