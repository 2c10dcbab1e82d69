package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_entry_store.go -package=mocks docchat/internal/storage EntryStore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrCorruptVector is returned when a stored vector blob cannot be decoded.
	ErrCorruptVector = errors.New("corrupt vector blob")
)

const (
	metaDimension   = "dimension"
	metaNextSeq     = "next_seq"
	metaFingerprint = "fingerprint"
)

// EntryStore defines the interface for index entry storage operations.
type EntryStore interface {
	// Append inserts records and updates meta in one transaction.
	Append(ctx context.Context, records []EntryRecord, meta IndexMeta) error
	// ReplaceAll deletes every record and meta row, then inserts records and meta, in one transaction.
	ReplaceAll(ctx context.Context, records []EntryRecord, meta IndexMeta) error
	// List returns all records ordered by seq.
	List(ctx context.Context) ([]EntryRecord, error)
	// GetMeta returns the index metadata. A fresh database yields the zero value.
	GetMeta(ctx context.Context) (IndexMeta, error)
}

// EntryRepo provides methods for index entry operations.
// It implements the EntryStore interface.
type EntryRepo struct {
	db *sql.DB
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// Append inserts records and updates meta in one transaction.
func (r *EntryRepo) Append(ctx context.Context, records []EntryRecord, meta IndexMeta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertRecords(ctx, tx, records); err != nil {
			return err
		}
		return putMeta(ctx, tx, meta)
	})
}

// ReplaceAll swaps the table content in one transaction.
func (r *EntryRepo) ReplaceAll(ctx context.Context, records []EntryRecord, meta IndexMeta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries"); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_meta"); err != nil {
			return fmt.Errorf("failed to delete meta: %w", err)
		}
		if err := insertRecords(ctx, tx, records); err != nil {
			return err
		}
		return putMeta(ctx, tx, meta)
	})
}

// List returns all records ordered by seq.
// Returns an empty slice if there are none (not an error).
func (r *EntryRepo) List(ctx context.Context) ([]EntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, chunk_id, document_id, source, chunk_index, text, start_offset, end_offset, vector
		 FROM index_entries ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []EntryRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return records, nil
}

// GetMeta returns the index metadata.
func (r *EntryRepo) GetMeta(ctx context.Context) (IndexMeta, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return IndexMeta{}, fmt.Errorf("failed to query meta: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var meta IndexMeta
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return IndexMeta{}, fmt.Errorf("failed to scan meta: %w", err)
		}
		switch key {
		case metaDimension:
			meta.Dimension, _ = strconv.Atoi(value)
		case metaNextSeq:
			meta.NextSeq, _ = strconv.ParseUint(value, 10, 64)
		case metaFingerprint:
			meta.Fingerprint = value
		}
	}
	return meta, rows.Err()
}

func (r *EntryRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, records []EntryRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO index_entries (seq, chunk_id, document_id, source, chunk_index, text, start_offset, end_offset, vector)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			int64(rec.Seq), rec.ChunkID, rec.DocumentID, rec.Source, rec.ChunkIndex,
			rec.Text, rec.StartOffset, rec.EndOffset, EncodeVector(rec.Vector),
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", rec.ChunkID, err)
		}
	}
	return nil
}

func putMeta(ctx context.Context, tx *sql.Tx, meta IndexMeta) error {
	values := map[string]string{
		metaDimension:   strconv.Itoa(meta.Dimension),
		metaNextSeq:     strconv.FormatUint(meta.NextSeq, 10),
		metaFingerprint: meta.Fingerprint,
	}
	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO index_meta (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to write meta %s: %w", key, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*EntryRecord, error) {
	var (
		rec  EntryRecord
		seq  int64
		blob []byte
	)
	err := row.Scan(&seq, &rec.ChunkID, &rec.DocumentID, &rec.Source, &rec.ChunkIndex,
		&rec.Text, &rec.StartOffset, &rec.EndOffset, &blob)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	rec.Seq = uint64(seq)
	rec.Vector, err = DecodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", rec.ChunkID, err)
	}
	return &rec, nil
}

// EncodeVector packs v as little-endian float32 values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrCorruptVector, len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
