package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// FileSourceBuilder creates a FileSource from source settings.
type FileSourceBuilder func(ctx context.Context, settings domain.SourceSettings) (FileSource, error)

// FileSourceFactory creates file sources from configuration.
// It maintains a registry of source types and their builders.
type FileSourceFactory interface {
	// Create returns a FileSource for the configured type.
	// Returns ErrUnsupportedType if the source type is unknown.
	Create(ctx context.Context, settings domain.SourceSettings) (FileSource, error)

	// Register adds a builder for the given type.
	Register(sourceType domain.SourceType, builder FileSourceBuilder)

	// SupportedTypes returns all registered source types.
	SupportedTypes() []domain.SourceType
}
