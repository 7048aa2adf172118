package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	CorpusID       string   `json:"corpus_id" jsonschema:"the corpus to search"`
	Query          string   `json:"query" jsonschema:"natural-language question to find context for"`
	MatchCount     int      `json:"match_count,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
	MatchThreshold *float64 `json:"match_threshold,omitempty" jsonschema:"minimum similarity between 0 and 1 (default 0.5)"`
	ProfileID      string   `json:"profile_id,omitempty" jsonschema:"optional brand profile used to frame the context"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	Chunks         []ChunkOutput `json:"chunks"`
	Context        string        `json:"context"`
	ProfileContext string        `json:"profile_context,omitempty"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	DocumentID string  `json:"document_id"`
	FileName   string  `json:"file_name"`
	Path       string  `json:"path,omitempty"`
	Index      int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Find the passages of a corpus most relevant to a question and return them as prompt-ready context",
	}, s.handleRetrieve)
}

// handleRetrieve handles the retrieve_context tool invocation.
// Provider and store failures come back in the output with success=false;
// only bad input and unknown profiles are tool errors.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.CorpusID == "" {
		return nil, RetrieveOutput{}, errors.New("corpus_id is required")
	}

	assembled, err := s.ports.Retrieval.AssembleContext(ctx, driving.ContextRequest{
		Query: domain.RetrievalQuery{
			Query:          input.Query,
			CorpusID:       input.CorpusID,
			MatchCount:     input.MatchCount,
			MatchThreshold: input.MatchThreshold,
		},
		ProfileID: input.ProfileID,
	})
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Success:        assembled.Result.Success,
		Error:          assembled.Result.Error,
		Chunks:         make([]ChunkOutput, len(assembled.Result.Chunks)),
		Context:        assembled.Context,
		ProfileContext: assembled.ProfileContext,
	}
	for i, hit := range assembled.Result.Chunks {
		name := hit.DocumentName
		if name == "" {
			name = hit.Chunk.Metadata.FileName
		}
		output.Chunks[i] = ChunkOutput{
			DocumentID: hit.Chunk.DocumentID,
			FileName:   name,
			Path:       hit.Chunk.Metadata.Path,
			Index:      hit.Chunk.Index,
			Content:    hit.Chunk.Content,
			Similarity: hit.Similarity,
		}
	}

	return nil, output, nil
}
