package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-ingest/internal/connectors/google/drive"
	"github.com/custodia-labs/sercha-ingest/internal/connectors/s3"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.FileSourceFactory = (*Factory)(nil)

// Factory creates file sources from settings.
type Factory struct {
	mu       sync.RWMutex
	builders map[domain.SourceType]driven.FileSourceBuilder
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		builders: make(map[domain.SourceType]driven.FileSourceBuilder),
	}
}

// NewDefaultFactory creates a factory with every built-in source registered.
func NewDefaultFactory() *Factory {
	f := NewFactory()
	f.Register(domain.SourceFilesystem, filesystem.Build)
	f.Register(domain.SourceGoogleDrive, drive.Build)
	f.Register(domain.SourceS3, s3.Build)
	return f
}

// Register adds a builder for the given type, replacing any existing one.
func (f *Factory) Register(sourceType domain.SourceType, builder driven.FileSourceBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[sourceType] = builder
}

// Create returns a FileSource for settings.Type.
func (f *Factory) Create(ctx context.Context, settings domain.SourceSettings) (driven.FileSource, error) {
	f.mu.RLock()
	builder, ok := f.builders[settings.Type]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, settings.Type)
	}

	src, err := builder(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("create %s source: %w", settings.Type, err)
	}
	return src, nil
}

// SupportedTypes returns all registered source types, sorted.
func (f *Factory) SupportedTypes() []domain.SourceType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]domain.SourceType, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
