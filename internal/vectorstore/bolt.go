package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
)

// BoltFileName is the index file created inside the persist directory.
const BoltFileName = "index.db"

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")

	keyDimension   = []byte("dimension")
	keyNextSeq     = []byte("next_seq")
	keyFingerprint = []byte("fingerprint")
)

// ErrLocked is returned when another process holds the index file.
var ErrLocked = errors.New("index is locked by another process")

// BoltIndex is a durable Index backed by a bbolt file.
// Entries are cached in memory and searched by linear scan; writes go to disk first.
// bbolt holds an exclusive file lock while open, so writers in different processes serialize.
type BoltIndex struct {
	db *bbolt.DB

	mu          sync.RWMutex
	entries     []Entry
	dimension   int
	nextSeq     uint64
	fingerprint string
}

type storedEntry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"doc"`
	Source     string    `json:"src"`
	Index      int       `json:"idx"`
	Text       string    `json:"text"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Vector     []float32 `json:"v"`
}

// NewBoltIndex opens (or creates) the index file in dir and loads its entries.
func NewBoltIndex(dir string, lockTimeout time.Duration) (*BoltIndex, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, BoltFileName), 0o600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("failed to open bolt index: %w", ErrLocked)
		}
		return nil, fmt.Errorf("failed to open bolt index: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &BoltIndex{db: db}
	if err := idx.load(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return idx, nil
}

// load reads meta and entries into memory. Entries come back in seq order
// because keys are big-endian sequence numbers.
func (b *BoltIndex) load() error {
	return b.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		b.dimension = atoiOrZero(meta.Get(keyDimension))
		b.nextSeq = uint64(atoiOrZero(meta.Get(keyNextSeq)))
		b.fingerprint = string(meta.Get(keyFingerprint))

		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var s storedEntry
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("corrupt entry %x: %w", k, err)
			}
			b.entries = append(b.entries, s.entry(binary.BigEndian.Uint64(k)))
			return nil
		})
	})
}

// Insert writes entries in a single transaction, then updates the cache.
func (b *BoltIndex) Insert(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dim, err := batchDimension(b.dimension, entries)
	if err != nil {
		return err
	}

	staged, nextSeq := sequenceFrom(b.nextSeq, entries)
	err = b.db.Update(func(tx *bbolt.Tx) error {
		if err := putEntries(tx.Bucket(bucketEntries), staged); err != nil {
			return err
		}
		return putMeta(tx.Bucket(bucketMeta), dim, nextSeq, b.fingerprint)
	})
	if err != nil {
		return fmt.Errorf("failed to insert entries: %w", err)
	}

	b.entries = append(b.entries, staged...)
	b.dimension = dim
	b.nextSeq = nextSeq

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "inserted entries", "backend", "bolt", "count", len(staged))
	return nil
}

// Query scans the cached entries.
func (b *BoltIndex) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := checkQuery(b.dimension, vector, k); err != nil {
		return nil, err
	}
	return scan(b.entries, vector, k), nil
}

// Reset drops all entries and metadata.
func (b *BoltIndex) Reset(ctx context.Context) error {
	return b.Replace(ctx, nil, "")
}

// Replace rewrites both buckets in one transaction.
func (b *BoltIndex) Replace(ctx context.Context, entries []Entry, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dim, err := batchDimension(0, entries)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	staged, nextSeq := sequenceFrom(0, entries)
	err = b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		if err := putEntries(tx.Bucket(bucketEntries), staged); err != nil {
			return err
		}
		return putMeta(tx.Bucket(bucketMeta), dim, nextSeq, fingerprint)
	})
	if err != nil {
		return fmt.Errorf("failed to replace entries: %w", err)
	}

	b.entries = staged
	b.dimension = dim
	b.nextSeq = nextSeq
	b.fingerprint = fingerprint

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index replaced", "backend", "bolt", "count", len(staged), "dimension", dim)
	return nil
}

// Count returns the number of cached entries.
func (b *BoltIndex) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries), nil
}

// Fingerprint returns the stored embedding model name.
func (b *BoltIndex) Fingerprint(ctx context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fingerprint, nil
}

// Close closes the bolt file and releases its lock.
func (b *BoltIndex) Close() error {
	return b.db.Close()
}

func putEntries(bucket *bbolt.Bucket, entries []Entry) error {
	key := make([]byte, 8)
	for _, e := range entries {
		data, err := json.Marshal(newStoredEntry(e))
		if err != nil {
			return err
		}
		binary.BigEndian.PutUint64(key, e.Seq)
		if err := bucket.Put(key, data); err != nil {
			return err
		}
	}
	return nil
}

func putMeta(bucket *bbolt.Bucket, dim int, nextSeq uint64, fingerprint string) error {
	if err := bucket.Put(keyDimension, []byte(strconv.Itoa(dim))); err != nil {
		return err
	}
	if err := bucket.Put(keyNextSeq, []byte(strconv.FormatUint(nextSeq, 10))); err != nil {
		return err
	}
	return bucket.Put(keyFingerprint, []byte(fingerprint))
}

// sequenceFrom copies entries with seq numbers after last and returns the new last seq.
func sequenceFrom(last uint64, entries []Entry) ([]Entry, uint64) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		last++
		e.Seq = last
		out[i] = e
	}
	return out, last
}

func newStoredEntry(e Entry) storedEntry {
	return storedEntry{
		ID:         e.Chunk.ID,
		DocumentID: e.Chunk.DocumentID,
		Source:     e.Chunk.Source,
		Index:      e.Chunk.Index,
		Text:       e.Chunk.Text,
		Start:      e.Chunk.Start,
		End:        e.Chunk.End,
		Vector:     e.Vector,
	}
}

func (s storedEntry) entry(seq uint64) Entry {
	return Entry{
		Chunk: indexer.Chunk{
			ID:         s.ID,
			DocumentID: s.DocumentID,
			Source:     s.Source,
			Index:      s.Index,
			Text:       s.Text,
			Start:      s.Start,
			End:        s.End,
			Bytes:      len(s.Text),
		},
		Vector: s.Vector,
		Seq:    seq,
	}
}

func atoiOrZero(b []byte) int {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0
	}
	return n
}
