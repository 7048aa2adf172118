package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for corpus resources.
	uriScheme = "sercha://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "corpora",
		Name:        "corpora",
		Description: "All corpora with their sync status",
		MIMEType:    "application/json",
	}, s.handleCorporaResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "corpora/{corpusId}/documents",
		Name:        "corpus-documents",
		Description: "Documents tracked for a corpus with their indexing status",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "jobs/{jobId}",
		Name:        "ingestion-job",
		Description: "Status, progress and stats of an ingestion job",
		MIMEType:    "application/json",
	}, s.handleJobResource)
}

type corpusInfo struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	SyncStatus string           `json:"sync_status"`
	LastSyncAt *time.Time       `json:"last_sync_at,omitempty"`
	Stats      domain.SyncStats `json:"last_sync_stats"`
	URI        string           `json:"uri"`
}

// handleCorporaResource lists every corpus.
func (s *Server) handleCorporaResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Corpus == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	corpora, err := s.ports.Corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing corpora: %w", err)
	}

	infos := make([]corpusInfo, len(corpora))
	for i := range corpora {
		c := &corpora[i]
		infos[i] = corpusInfo{
			ID:         c.ID,
			Name:       c.Name,
			SyncStatus: c.SyncStatus.String(),
			LastSyncAt: c.LastSyncAt,
			Stats:      c.LastSyncStats,
			URI:        uriScheme + "corpora/" + c.ID + "/documents",
		}
	}

	return marshalResult(req.Params.URI, infos, "corpora")
}

// handleDocumentsResource returns documents for a specific corpus.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Corpus == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// sercha://corpora/{corpusId}/documents
	corpusID := extractCorpusID(req.Params.URI)
	if corpusID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Corpus.ListDocuments(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Path           string `json:"path"`
		MIMEType       string `json:"mime_type"`
		IndexingStatus string `json:"indexing_status"`
		ChunkCount     int    `json:"chunk_count"`
		Error          string `json:"error,omitempty"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:             docs[i].ID,
			Name:           docs[i].Name,
			Path:           docs[i].Path,
			MIMEType:       docs[i].MIMEType,
			IndexingStatus: docs[i].IndexingStatus.String(),
			ChunkCount:     docs[i].ChunkCount,
			Error:          docs[i].ErrorMessage,
		}
	}

	return marshalResult(req.Params.URI, infos, "documents")
}

// handleJobResource returns a single ingestion job.
func (s *Server) handleJobResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Corpus == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	jobID := extractJobID(req.Params.URI)
	if jobID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	job, err := s.ports.Corpus.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}

	info := struct {
		ID           string           `json:"id"`
		CorpusID     string           `json:"corpus_id"`
		Status       string           `json:"status"`
		Progress     domain.Progress  `json:"progress"`
		Stats        domain.SyncStats `json:"stats"`
		ErrorMessage string           `json:"error_message,omitempty"`
		StartedAt    *time.Time       `json:"started_at,omitempty"`
		CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	}{
		ID:           job.ID,
		CorpusID:     job.CorpusID,
		Status:       job.Status.String(),
		Progress:     job.Progress,
		Stats:        job.Stats,
		ErrorMessage: job.ErrorMessage,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}

	return marshalResult(req.Params.URI, info, "job")
}

func marshalResult(uri string, v any, what string) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", what, err)
	}
	return jsonResult(uri, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractCorpusID extracts the corpus ID from a URI like sercha://corpora/{corpusId}/documents.
func extractCorpusID(uri string) string {
	const prefix = uriScheme + "corpora/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractJobID extracts the job ID from a URI like sercha://jobs/{jobId}.
func extractJobID(uri string) string {
	const prefix = uriScheme + "jobs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
