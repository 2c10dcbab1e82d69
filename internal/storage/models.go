package storage

// EntryRecord is one row of index_entries: a chunk and its embedding.
type EntryRecord struct {
	Seq         uint64 // Insertion sequence, primary key
	ChunkID     string // "<document id>:<index>"
	DocumentID  string
	Source      string // Document name
	ChunkIndex  int
	Text        string
	StartOffset int // Rune offset into the document text
	EndOffset   int
	Vector      []float32
}

// IndexMeta is the per-index metadata kept in index_meta.
type IndexMeta struct {
	Dimension   int
	NextSeq     uint64 // Last assigned sequence number
	Fingerprint string // Embedding model that produced the vectors
}
