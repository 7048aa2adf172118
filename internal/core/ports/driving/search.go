package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// RetrievalService finds relevant chunks and frames them for prompting.
type RetrievalService interface {
	// Retrieve embeds the query and returns chunks above the threshold.
	// Failures are reported in the result, never as an error.
	Retrieve(ctx context.Context, query domain.RetrievalQuery) domain.RetrievalResult

	// AssembleContext retrieves chunks and renders them, with optional
	// profile framing, into prompt-ready text.
	AssembleContext(ctx context.Context, req ContextRequest) (*AssembledContext, error)
}

// ContextRequest configures AssembleContext.
type ContextRequest struct {
	Query     domain.RetrievalQuery
	ProfileID string
}

// AssembledContext is retrieval output ready for a prompt.
type AssembledContext struct {
	Result         domain.RetrievalResult
	Context        string
	ProfileContext string
}
