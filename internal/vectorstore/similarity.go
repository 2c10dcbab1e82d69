package vectorstore

import (
	"fmt"
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length, or with zero norm, score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// sortResults orders by descending score, then ascending seq, and keeps the first k.
func sortResults(results []Result, k int) []Result {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Seq < results[j].Seq
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

// scan is the linear-scan reference search over entries.
func scan(entries []Entry, query []float32, k int) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Result{
			Chunk: e.Chunk,
			Score: CosineSimilarity(query, e.Vector),
			Seq:   e.Seq,
		})
	}
	return sortResults(results, k)
}

// batchDimension checks that all entries share one length and that it equals dim
// when dim is already established (non-zero). It returns the batch dimension.
func batchDimension(dim int, entries []Entry) (int, error) {
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return 0, fmt.Errorf("entry %d (%s): %w: empty vector", i, e.Chunk.ID, ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(e.Vector)
			continue
		}
		if len(e.Vector) != dim {
			return 0, fmt.Errorf("entry %d (%s): %w: expected %d, got %d", i, e.Chunk.ID, ErrDimensionMismatch, dim, len(e.Vector))
		}
	}
	return dim, nil
}

// checkQuery validates a query against the index dimension.
func checkQuery(dim int, query []float32, k int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	if dim != 0 && len(query) != dim {
		return fmt.Errorf("query: %w: expected %d, got %d", ErrDimensionMismatch, dim, len(query))
	}
	return nil
}
