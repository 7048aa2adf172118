// Package postprocessors selects how normalised text is split into chunks.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// BuilderFunc creates a ChunkerFactory from chunking settings.
type BuilderFunc func(cfg domain.ChunkingSettings) (driven.ChunkerFactory, error)

// Registry maps chunking strategy names to their builders.
// It allows the strategy to be chosen from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder under name, replacing any previous one.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a ChunkerFactory for cfg.Strategy, falling back to the
// default strategy when it is empty.
// Returns domain.ErrUnsupportedType if the strategy is not registered.
func (r *Registry) Build(cfg domain.ChunkingSettings) (driven.ChunkerFactory, error) {
	name := cfg.Strategy
	if name == "" {
		name = domain.DefaultChunkingStrategy
	}
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: chunking strategy %q", domain.ErrUnsupportedType, name)
	}
	return builder(cfg)
}

// Has returns true if a strategy with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
