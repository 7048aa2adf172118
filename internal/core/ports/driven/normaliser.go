package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Normaliser extracts plain text from raw file bytes.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	// Patterns ending in "/*" match a whole family.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text from raw content.
	// The result is not yet cleaned; the registry applies cleaning.
	Normalise(ctx context.Context, raw *domain.RawContent) (string, error)
}

// NormaliserRegistry selects a normaliser by MIME type and cleans its output.
type NormaliserRegistry interface {
	// Register adds a normaliser.
	Register(n Normaliser)

	// Get returns the highest-priority normaliser for mimeType.
	Get(mimeType string) (Normaliser, error)

	// Supports reports whether any normaliser handles mimeType.
	Supports(mimeType string) bool

	// Normalise extracts and cleans text. The result is deterministic for
	// identical input so it can be fingerprinted.
	Normalise(ctx context.Context, raw *domain.RawContent) (string, error)

	// SupportedMIMETypes lists every registered MIME type.
	SupportedMIMETypes() []string
}
