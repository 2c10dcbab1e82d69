package indexer

// Document is the extracted text of one uploaded file.
type Document struct {
	ID       string // UUID assigned at load time
	Name     string // Source file name
	Text     string // Extracted plain text
	Position int    // Order among the uploaded documents (starts at 0)
}

// Chunk is a bounded span of a document's text.
// Start and End are character (rune) offsets into Document.Text, End exclusive.
type Chunk struct {
	ID         string // "<document id>:<index>"
	DocumentID string
	Source     string // Document name
	Index      int    // Sequence within the document (starts at 0)
	Text       string
	Start      int
	End        int
	Bytes      int // len(Text) in bytes
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// File is an uploaded file before extraction.
type File struct {
	Name string
	Data []byte
}

// SkippedFile records a file that could not be turned into a Document.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
