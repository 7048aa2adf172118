package mcp

import (
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers retrieve_context calls.
	Retrieval driving.RetrievalService

	// Corpus exposes corpora, jobs and documents as resources.
	Corpus driving.CorpusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
