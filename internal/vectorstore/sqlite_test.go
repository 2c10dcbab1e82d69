package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"docchat/internal/storage"
	"docchat/internal/storage/mocks"
)

func TestSQLiteIndex_LoadsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockEntryStore(ctrl)
	store.EXPECT().GetMeta(gomock.Any()).Return(storage.IndexMeta{Dimension: 2, NextSeq: 2, Fingerprint: "m1"}, nil)
	store.EXPECT().List(gomock.Any()).Return([]storage.EntryRecord{
		{Seq: 1, ChunkID: "d:0", DocumentID: "d", Source: "d.txt", Text: "first", EndOffset: 5, Vector: []float32{1, 0}},
		{Seq: 2, ChunkID: "d:1", DocumentID: "d", Source: "d.txt", ChunkIndex: 1, Text: "second", StartOffset: 5, EndOffset: 11, Vector: []float32{0, 1}},
	}, nil)

	idx, err := newSQLiteIndex(context.Background(), store)
	require.NoError(t, err)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	fp, err := idx.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m1", fp)

	results, err := idx.Query(context.Background(), []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d:1", results[0].Chunk.ID)
	assert.Equal(t, 6, results[0].Chunk.Bytes)
	assert.Equal(t, 5, results[0].Chunk.Start)
}

func TestSQLiteIndex_LoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockEntryStore(ctrl)
	store.EXPECT().GetMeta(gomock.Any()).Return(storage.IndexMeta{}, errors.New("disk I/O error"))

	_, err := newSQLiteIndex(context.Background(), store)
	assert.ErrorContains(t, err, "disk I/O error")
}

func TestSQLiteIndex_FailedWritesKeepSnapshot(t *testing.T) {
	ctx := context.Background()
	writeErr := errors.New("database is locked")

	tests := []struct {
		name  string
		setup func(*mocks.MockEntryStore)
		write func(*SQLiteIndex) error
	}{
		{
			name: "replace",
			setup: func(m *mocks.MockEntryStore) {
				m.EXPECT().ReplaceAll(gomock.Any(), gomock.Len(1), storage.IndexMeta{Dimension: 2, NextSeq: 1, Fingerprint: "m2"}).
					Return(writeErr)
			},
			write: func(idx *SQLiteIndex) error {
				return idx.Replace(ctx, []Entry{entry("new:0", 1, 1)}, "m2")
			},
		},
		{
			name: "insert",
			setup: func(m *mocks.MockEntryStore) {
				m.EXPECT().Append(gomock.Any(), gomock.Len(1), storage.IndexMeta{Dimension: 2, NextSeq: 2, Fingerprint: "m1"}).
					Return(writeErr)
			},
			write: func(idx *SQLiteIndex) error {
				return idx.Insert(ctx, []Entry{entry("new:0", 1, 1)})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mocks.NewMockEntryStore(ctrl)
			store.EXPECT().GetMeta(gomock.Any()).Return(storage.IndexMeta{Dimension: 2, NextSeq: 1, Fingerprint: "m1"}, nil)
			store.EXPECT().List(gomock.Any()).Return([]storage.EntryRecord{
				{Seq: 1, ChunkID: "old:0", Text: "old", Vector: []float32{1, 0}},
			}, nil)
			tt.setup(store)

			idx, err := newSQLiteIndex(ctx, store)
			require.NoError(t, err)

			err = tt.write(idx)
			require.Error(t, err)
			assert.ErrorIs(t, err, writeErr)

			count, _ := idx.Count(ctx)
			assert.Equal(t, 1, count)
			fp, _ := idx.Fingerprint(ctx)
			assert.Equal(t, "m1", fp)
		})
	}
}
