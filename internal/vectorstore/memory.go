package vectorstore

import (
	"context"
	"sync"
)

// MemoryIndex is an in-process Index. Its content lives only as long as the process.
type MemoryIndex struct {
	mu          sync.RWMutex
	entries     []Entry
	dimension   int
	nextSeq     uint64
	fingerprint string
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Insert appends entries.
func (m *MemoryIndex) Insert(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim, err := batchDimension(m.dimension, entries)
	if err != nil {
		return err
	}
	staged, nextSeq := sequenceFrom(m.nextSeq, entries)
	m.entries = append(m.entries, staged...)
	m.dimension = dim
	m.nextSeq = nextSeq
	return nil
}

// Query scans every entry.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := checkQuery(m.dimension, vector, k); err != nil {
		return nil, err
	}
	return scan(m.entries, vector, k), nil
}

// Reset discards all entries.
func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.dimension = 0
	m.nextSeq = 0
	m.fingerprint = ""
	return nil
}

// Replace swaps the content in one step.
func (m *MemoryIndex) Replace(ctx context.Context, entries []Entry, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dim, err := batchDimension(0, entries)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries, m.nextSeq = sequenceFrom(0, entries)
	m.dimension = dim
	m.fingerprint = fingerprint
	return nil
}

// Count returns the number of entries.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Fingerprint returns the recorded embedding model.
func (m *MemoryIndex) Fingerprint(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fingerprint, nil
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}
