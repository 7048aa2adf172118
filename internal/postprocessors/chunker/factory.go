package chunker

import (
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ChunkerFactory = (*Factory)(nil)

// Factory creates one Chunker per sync tick.
type Factory struct {
	opts []Option
}

// NewFactory creates a factory whose chunkers use opts.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// FromSettings creates a factory from chunking settings.
// Zero values select the defaults; negative values are rejected.
func FromSettings(cfg domain.ChunkingSettings) (*Factory, error) {
	if cfg.MaxTokens < 0 || cfg.MinTokens < 0 || cfg.OverlapTokens < 0 {
		return nil, fmt.Errorf("%w: chunking bounds must not be negative", domain.ErrInvalidInput)
	}
	if cfg.MaxTokens > 0 && cfg.MinTokens > cfg.MaxTokens {
		return nil, fmt.Errorf("%w: min tokens %d exceeds max tokens %d",
			domain.ErrInvalidInput, cfg.MinTokens, cfg.MaxTokens)
	}

	var opts []Option
	if cfg.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.MinTokens > 0 {
		opts = append(opts, WithMinTokens(cfg.MinTokens))
	}
	if cfg.OverlapTokens > 0 {
		opts = append(opts, WithOverlapTokens(cfg.OverlapTokens))
	}
	return NewFactory(opts...), nil
}

// NewChunker returns a fresh Chunker with its own tokenizer.
func (f *Factory) NewChunker() (driven.Chunker, error) {
	return New(f.opts...), nil
}
