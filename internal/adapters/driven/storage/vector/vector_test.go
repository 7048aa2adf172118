package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTopK(t *testing.T) {
	hits := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "a"}, Similarity: 0.6},
		{Chunk: domain.Chunk{ID: "b"}, Similarity: 0.9},
		{Chunk: domain.Chunk{ID: "c"}, Similarity: 0.4},
		{Chunk: domain.Chunk{ID: "d"}, Similarity: 0.7},
	}

	got := TopK(hits, 2, 0.5)

	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Chunk.ID)
	assert.Equal(t, "d", got[1].Chunk.ID)
}

func TestTopK_ThresholdInclusive(t *testing.T) {
	hits := []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "a"}, Similarity: 0.5}}
	assert.Len(t, TopK(hits, 5, 0.5), 1)
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	assert.Equal(t, in, Decode(Encode(in)))
	assert.Nil(t, Encode(nil))
	assert.Nil(t, Decode(nil))
}
