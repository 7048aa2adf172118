package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds queries and searches a corpus by vector similarity.
// It must use the same embedding model as ingestion.
type RetrievalService struct {
	embeddingService driven.EmbeddingService
	searcher         driven.VectorSearcher
	profiles         driven.ProfileStore
}

// NewRetrievalService creates a new retrieval service.
// The profiles store is optional; without it profile framing is skipped.
func NewRetrievalService(
	embeddingService driven.EmbeddingService,
	searcher driven.VectorSearcher,
	profiles driven.ProfileStore,
) *RetrievalService {
	return &RetrievalService{
		embeddingService: embeddingService,
		searcher:         searcher,
		profiles:         profiles,
	}
}

// Retrieve returns the chunks closest to the query whose similarity meets
// the threshold. An empty successful result means nothing matched;
// Success=false means the provider or store failed.
func (s *RetrievalService) Retrieve(ctx context.Context, q domain.RetrievalQuery) domain.RetrievalResult {
	logger.Section("Retrieval")

	q = q.WithDefaults()
	q.Query = strings.TrimSpace(q.Query)

	if q.Query == "" {
		return failed("query is empty")
	}
	if q.CorpusID == "" {
		return failed("corpus id is required")
	}
	if s.embeddingService == nil {
		return failed(domain.ErrEmbeddingUnavailable.Error())
	}

	logger.Debug("Query: %q corpus=%s count=%d threshold=%.2f", q.Query, q.CorpusID, q.MatchCount, q.Threshold())

	embedding, err := s.embeddingService.Embed(ctx, q.Query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return failed(domain.NewEmbeddingProviderError(err).Error())
	}
	if dims := s.embeddingService.Dimensions(); dims > 0 && len(embedding) != dims {
		return failed(domain.NewEmbeddingProviderError(
			fmt.Errorf("query embedding has %d dimensions, want %d", len(embedding), dims)).Error())
	}

	hits, err := s.searcher.SearchChunks(ctx, q.CorpusID, embedding, q.MatchCount, q.Threshold())
	if err != nil {
		logger.Warn("Vector search failed: %v", err)
		return failed(fmt.Sprintf("search chunks: %v", err))
	}

	// No adapter may leak a chunk below the threshold.
	chunks := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if h.Similarity < q.Threshold() {
			continue
		}
		h.Chunk.Embedding = nil
		chunks = append(chunks, h)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Similarity > chunks[j].Similarity
	})
	if len(chunks) > q.MatchCount {
		chunks = chunks[:q.MatchCount]
	}

	logger.Debug("Retrieved %d chunks", len(chunks))
	return domain.RetrievalResult{Chunks: chunks, Success: true}
}

// AssembleContext retrieves chunks and renders them, with optional profile
// framing, into prompt-ready text. Retrieval failures are reported in the
// result; only a missing or unreadable profile is returned as an error.
func (s *RetrievalService) AssembleContext(ctx context.Context, req driving.ContextRequest) (*driving.AssembledContext, error) {
	var profile *domain.Profile
	if req.ProfileID != "" {
		if s.profiles == nil {
			return nil, fmt.Errorf("%w: profiles are not configured", domain.ErrNotFound)
		}
		p, err := s.profiles.GetProfile(ctx, req.ProfileID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("profile %s: %w", req.ProfileID, err)
			}
			return nil, fmt.Errorf("get profile: %w", err)
		}
		profile = p
	}

	result := s.Retrieve(ctx, req.Query)
	return &driving.AssembledContext{
		Result:         result,
		Context:        BuildContext(result.Chunks),
		ProfileContext: BuildProfileContext(profile),
	}, nil
}

func failed(msg string) domain.RetrievalResult {
	return domain.RetrievalResult{Chunks: []domain.ScoredChunk{}, Success: false, Error: msg}
}
