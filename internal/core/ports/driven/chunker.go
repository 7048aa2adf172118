package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Chunker splits normalised text into bounded, overlapping segments.
// A Chunker owns tokenizer resources and is not safe for concurrent use.
type Chunker interface {
	// Chunk splits text into drafts indexed 0..n-1 with non-empty trimmed content.
	Chunk(ctx context.Context, text string) ([]domain.ChunkDraft, error)

	// Close releases tokenizer resources. Chunk must not be called afterwards.
	Close() error
}

// ChunkerFactory creates a Chunker for one sync tick.
type ChunkerFactory interface {
	NewChunker() (Chunker, error)
}
