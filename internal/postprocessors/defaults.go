package postprocessors

import (
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in chunking strategies.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(domain.DefaultChunkingStrategy, buildRecursive)
}

// NewDefaultRegistry returns a registry holding the built-in strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildRecursive creates the recursive separator chunker.
// Zero bounds select the chunker defaults.
func buildRecursive(cfg domain.ChunkingSettings) (driven.ChunkerFactory, error) {
	return chunker.FromSettings(cfg)
}
