package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// DefaultEmbeddingBatchSize is the maximum texts per provider request.
const DefaultEmbeddingBatchSize = 64

// IndexedText is chunk content paired with its original chunk index.
type IndexedText struct {
	Index int
	Text  string
}

// IndexedEmbedding is a vector paired with the chunk index it belongs to.
type IndexedEmbedding struct {
	Index     int
	Text      string
	Embedding []float32
}

// EmbeddableChunks drops drafts whose content is blank after trimming and
// returns the rest as (original index, trimmed text) pairs.
func EmbeddableChunks(drafts []domain.ChunkDraft) []IndexedText {
	out := make([]IndexedText, 0, len(drafts))
	for _, d := range drafts {
		text := strings.TrimSpace(d.Content)
		if text == "" {
			continue
		}
		out = append(out, IndexedText{Index: d.Index, Text: text})
	}
	return out
}

// EmbeddingBatcher splits texts into provider-sized requests and verifies
// the provider returned one vector of the right size per input.
type EmbeddingBatcher struct {
	service   driven.EmbeddingService
	batchSize int
	limiter   *rate.Limiter
}

// BatcherOption configures an EmbeddingBatcher.
type BatcherOption func(*EmbeddingBatcher)

// WithEmbeddingBatchSize sets the sub-batch size.
func WithEmbeddingBatchSize(size int) BatcherOption {
	return func(b *EmbeddingBatcher) {
		if size > 0 {
			b.batchSize = size
		}
	}
}

// WithRequestsPerMinute limits provider calls. Zero disables limiting.
func WithRequestsPerMinute(rpm int) BatcherOption {
	return func(b *EmbeddingBatcher) {
		if rpm > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		}
	}
}

// NewEmbeddingBatcher creates a batcher over an embedding service.
func NewEmbeddingBatcher(service driven.EmbeddingService, opts ...BatcherOption) *EmbeddingBatcher {
	b := &EmbeddingBatcher{
		service:   service,
		batchSize: DefaultEmbeddingBatchSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GenerateEmbeddings returns one vector per text in input order.
// It is all-or-nothing: any sub-batch failure fails the whole call.
func (b *EmbeddingBatcher) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if b.service == nil {
		return nil, domain.NewEmbeddingProviderError(domain.ErrEmbeddingUnavailable)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	dims := b.service.Dimensions()
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		batch := texts[start:end]

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, domain.NewEmbeddingProviderError(err)
			}
		}

		logger.Debug("Embedding batch %d-%d of %d", start, end, len(texts))
		vectors, err := b.service.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, domain.NewEmbeddingProviderError(err)
		}
		if len(vectors) != len(batch) {
			return nil, domain.NewEmbeddingProviderError(
				fmt.Errorf("provider returned %d embeddings for %d inputs", len(vectors), len(batch)))
		}
		for i, v := range vectors {
			if dims > 0 && len(v) != dims {
				return nil, domain.NewEmbeddingProviderError(
					fmt.Errorf("embedding %d has %d dimensions, want %d", start+i, len(v), dims))
			}
		}
		out = append(out, vectors...)
	}

	return out, nil
}

// EmbedPairs embeds indexed texts and keeps each vector attached to its index.
func (b *EmbeddingBatcher) EmbedPairs(ctx context.Context, pairs []IndexedText) ([]IndexedEmbedding, error) {
	texts := make([]string, len(pairs))
	for i, p := range pairs {
		texts[i] = p.Text
	}

	vectors, err := b.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(pairs) {
		return nil, domain.NewEmbeddingProviderError(errors.New("embedding count mismatch"))
	}

	out := make([]IndexedEmbedding, len(pairs))
	for i, p := range pairs {
		out[i] = IndexedEmbedding{Index: p.Index, Text: p.Text, Embedding: vectors[i]}
	}
	return out, nil
}
