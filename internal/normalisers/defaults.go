package normalisers

import (
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/eml"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/html"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/office"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/plaintext"
)

// NewDefaultRegistry returns a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		eml.New(),
		office.New(),
	)
}
