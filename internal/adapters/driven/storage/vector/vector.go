// Package vector holds the similarity maths shared by stores that cannot
// push vector search down to the database.
package vector

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// CosineSimilarity returns 1 - cosine distance of a and b.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK filters hits below threshold, sorts by descending similarity and
// keeps at most k. Ties keep their input order.
func TopK(hits []domain.ScoredChunk, k int, threshold float64) []domain.ScoredChunk {
	kept := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if h.Similarity >= threshold {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})
	if k > 0 && len(kept) > k {
		kept = kept[:k]
	}
	return kept
}

// Encode converts a []float32 to a little-endian byte slice for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte slice written by Encode back to []float32.
func Decode(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
