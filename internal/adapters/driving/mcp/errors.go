// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets chat assistants pull retrieval-augmented context from an ingested corpus.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
