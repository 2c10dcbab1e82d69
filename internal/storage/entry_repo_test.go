package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *EntryRepo {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewEntryRepo(db)
}

func record(seq uint64, chunkID string, vec ...float32) EntryRecord {
	return EntryRecord{
		Seq:         seq,
		ChunkID:     chunkID,
		DocumentID:  "doc",
		Source:      "doc.txt",
		ChunkIndex:  int(seq) - 1,
		Text:        "text " + chunkID,
		StartOffset: 0,
		EndOffset:   10,
		Vector:      vec,
	}
}

func TestEntryRepo_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := []EntryRecord{record(1, "doc:0", 1, 0), record(2, "doc:1", 0, 1)}
	if err := repo.Append(ctx, first, IndexMeta{Dimension: 2, NextSeq: 2, Fingerprint: "m"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := repo.Append(ctx, []EntryRecord{record(3, "doc:2", 0.5, 0.5)}, IndexMeta{Dimension: 2, NextSeq: 3, Fingerprint: "m"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(records))
	}
	for i, rec := range records {
		if rec.Seq != uint64(i+1) {
			t.Errorf("records[%d].Seq = %d, want %d", i, rec.Seq, i+1)
		}
	}
	if records[2].Vector[0] != 0.5 || records[2].Vector[1] != 0.5 {
		t.Errorf("vector not round-tripped: %v", records[2].Vector)
	}

	meta, err := repo.GetMeta(ctx)
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if meta != (IndexMeta{Dimension: 2, NextSeq: 3, Fingerprint: "m"}) {
		t.Errorf("GetMeta() = %+v", meta)
	}
}

func TestEntryRepo_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Append(ctx, []EntryRecord{record(1, "old:0", 1, 2, 3)}, IndexMeta{Dimension: 3, NextSeq: 1, Fingerprint: "old"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := repo.ReplaceAll(ctx, []EntryRecord{record(1, "new:0", 1, 0)}, IndexMeta{Dimension: 2, NextSeq: 1, Fingerprint: "new"}); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(records))
	}
	if records[0].ChunkID != "new:0" || records[0].Text != "text new:0" {
		t.Errorf("List()[0] = %+v, want the replacement record", records[0])
	}

	meta, _ := repo.GetMeta(ctx)
	if meta.Fingerprint != "new" || meta.Dimension != 2 {
		t.Errorf("GetMeta() = %+v", meta)
	}
}

func TestEntryRepo_ReplaceAll_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Append(ctx, []EntryRecord{record(1, "keep:0", 1)}, IndexMeta{Dimension: 1, NextSeq: 1, Fingerprint: "m"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Duplicate seq violates the primary key half-way through the transaction.
	dup := []EntryRecord{record(1, "a:0", 1), record(1, "a:1", 1)}
	if err := repo.ReplaceAll(ctx, dup, IndexMeta{Dimension: 1, NextSeq: 1, Fingerprint: "x"}); err == nil {
		t.Fatal("ReplaceAll() expected error for duplicate seq")
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].ChunkID != "keep:0" {
		t.Errorf("previous content not kept: %+v", records)
	}
	meta, _ := repo.GetMeta(ctx)
	if meta.Fingerprint != "m" {
		t.Errorf("meta changed to %+v", meta)
	}
}

func TestEntryRepo_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("List() = %v, want empty", records)
	}

	meta, err := repo.GetMeta(ctx)
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if meta != (IndexMeta{}) {
		t.Errorf("GetMeta() = %+v, want zero value", meta)
	}
}

func TestDecodeVector(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    int
		wantErr bool
	}{
		{name: "empty", in: nil, want: 0},
		{name: "two floats", in: EncodeVector([]float32{1.5, -2}), want: 2},
		{name: "truncated", in: []byte{1, 2, 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeVector(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrCorruptVector) {
					t.Errorf("DecodeVector() error = %v, want ErrCorruptVector", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeVector() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("DecodeVector() len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
