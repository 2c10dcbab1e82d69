package indexer

import (
	"errors"
	"fmt"
	"unicode"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of characters shared by consecutive chunks.
const DefaultChunkOverlap = 200

// ErrInvalidChunkParams is returned when maxSize or overlap are out of range.
var ErrInvalidChunkParams = errors.New("invalid chunk parameters")

// Chunker splits document text into fixed-size overlapping chunks.
type Chunker struct {
	maxSize     int
	overlap     int
	softBreaks  bool
	minFraction int // soft breaks never shrink a chunk below maxSize/minFraction
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSoftBreaks toggles the preference for cutting at paragraph, line or word boundaries.
// When disabled every chunk except the last is exactly maxSize characters.
func WithSoftBreaks(enabled bool) Option {
	return func(c *Chunker) {
		c.softBreaks = enabled
	}
}

// NewChunker creates a chunker. overlap must be in [0, maxSize).
func NewChunker(maxSize, overlap int, opts ...Option) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be greater than 0, got %d", ErrInvalidChunkParams, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidChunkParams, maxSize, overlap)
	}

	c := &Chunker{
		maxSize:     maxSize,
		overlap:     overlap,
		softBreaks:  true,
		minFraction: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Split is a convenience wrapper around NewChunker(...).Chunk(doc).
func Split(doc Document, maxSize, overlap int) ([]Chunk, error) {
	c, err := NewChunker(maxSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Chunk(doc), nil
}

// Chunk splits the document. Empty text yields no chunks.
//
// Each chunk after the first starts exactly overlap characters before the end of the
// previous one, so dropping the first overlap characters of every chunk but the first
// and concatenating reconstructs the text.
func (c *Chunker) Chunk(doc Document) []Chunk {
	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.maxSize - c.overlap
	chunks := make([]Chunk, 0, n/step+1)

	start := 0
	for {
		end := start + c.maxSize
		if end >= n {
			end = n
		} else if c.softBreaks {
			// The next chunk starts at end-overlap, which must stay after start.
			lo := start + c.overlap + 1
			if floor := start + c.maxSize/c.minFraction; floor > lo {
				lo = floor
			}
			if b := findBreak(runes, lo, end); b > 0 {
				end = b
			}
		}

		text := string(runes[start:end])
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, len(chunks)),
			DocumentID: doc.ID,
			Source:     doc.Name,
			Index:      len(chunks),
			Text:       text,
			Start:      start,
			End:        end,
			Bytes:      len(text),
		})

		if end == n {
			break
		}
		start = end - c.overlap
	}

	return chunks
}

// findBreak returns the largest cut position in [lo, hi] that follows a paragraph
// break, then a line break, then any whitespace. It returns 0 when none exists.
func findBreak(runes []rune, lo, hi int) int {
	if lo > hi {
		return 0
	}
	for i := hi; i >= lo; i-- {
		if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := hi; i >= lo; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := hi; i >= lo; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return 0
}
