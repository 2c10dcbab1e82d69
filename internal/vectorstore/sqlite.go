package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/storage"
)

// SQLiteFileName is the database file created inside the persist directory.
const SQLiteFileName = "index.sqlite"

// SQLiteIndex is a durable Index stored in SQLite through storage.EntryStore.
// Queries run against a snapshot loaded at open and kept current by this process's writes.
type SQLiteIndex struct {
	db    *sql.DB
	store storage.EntryStore

	mu      sync.RWMutex
	entries []Entry
	meta    storage.IndexMeta
}

// NewSQLiteIndex opens (or creates) the database in dir, migrates it and loads its entries.
func NewSQLiteIndex(ctx context.Context, dir string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	db, err := storage.New(filepath.Join(dir, SQLiteFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite index: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite index: %w", err)
	}

	idx, err := newSQLiteIndex(ctx, storage.NewEntryRepo(db))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	idx.db = db
	return idx, nil
}

// newSQLiteIndex builds an index over an existing store.
func newSQLiteIndex(ctx context.Context, store storage.EntryStore) (*SQLiteIndex, error) {
	meta, err := store.GetMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index meta: %w", err)
	}
	records, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, fromRecord(rec))
	}
	return &SQLiteIndex{store: store, entries: entries, meta: meta}, nil
}

// Insert appends entries in one transaction.
func (s *SQLiteIndex) Insert(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := batchDimension(s.meta.Dimension, entries)
	if err != nil {
		return err
	}

	staged, nextSeq := sequenceFrom(s.meta.NextSeq, entries)
	meta := storage.IndexMeta{Dimension: dim, NextSeq: nextSeq, Fingerprint: s.meta.Fingerprint}
	if err := s.store.Append(ctx, toRecords(staged), meta); err != nil {
		return fmt.Errorf("failed to insert entries: %w", err)
	}

	s.entries = append(s.entries, staged...)
	s.meta = meta

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "inserted entries", "backend", "sqlite", "count", len(staged))
	return nil
}

// Query scans the snapshot.
func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := checkQuery(s.meta.Dimension, vector, k); err != nil {
		return nil, err
	}
	return scan(s.entries, vector, k), nil
}

// Reset deletes every row.
func (s *SQLiteIndex) Reset(ctx context.Context) error {
	return s.Replace(ctx, nil, "")
}

// Replace swaps the table content in one transaction.
func (s *SQLiteIndex) Replace(ctx context.Context, entries []Entry, fingerprint string) error {
	dim, err := batchDimension(0, entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged, nextSeq := sequenceFrom(0, entries)
	meta := storage.IndexMeta{Dimension: dim, NextSeq: nextSeq, Fingerprint: fingerprint}
	if err := s.store.ReplaceAll(ctx, toRecords(staged), meta); err != nil {
		return fmt.Errorf("failed to replace entries: %w", err)
	}

	s.entries = staged
	s.meta = meta

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index replaced", "backend", "sqlite", "count", len(staged), "dimension", dim)
	return nil
}

// Count returns the number of entries in the snapshot.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Fingerprint returns the stored embedding model name.
func (s *SQLiteIndex) Fingerprint(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Fingerprint, nil
}

// Close closes the database when this index opened it.
func (s *SQLiteIndex) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toRecords(entries []Entry) []storage.EntryRecord {
	records := make([]storage.EntryRecord, len(entries))
	for i, e := range entries {
		records[i] = storage.EntryRecord{
			Seq:         e.Seq,
			ChunkID:     e.Chunk.ID,
			DocumentID:  e.Chunk.DocumentID,
			Source:      e.Chunk.Source,
			ChunkIndex:  e.Chunk.Index,
			Text:        e.Chunk.Text,
			StartOffset: e.Chunk.Start,
			EndOffset:   e.Chunk.End,
			Vector:      e.Vector,
		}
	}
	return records
}

func fromRecord(rec storage.EntryRecord) Entry {
	return Entry{
		Chunk: indexer.Chunk{
			ID:         rec.ChunkID,
			DocumentID: rec.DocumentID,
			Source:     rec.Source,
			Index:      rec.ChunkIndex,
			Text:       rec.Text,
			Start:      rec.StartOffset,
			End:        rec.EndOffset,
			Bytes:      len(rec.Text),
		},
		Vector: rec.Vector,
		Seq:    rec.Seq,
	}
}
