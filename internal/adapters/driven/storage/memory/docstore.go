package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func naturalKey(corpusID, sourceFileID string) string {
	return corpusID + "/" + sourceFileID
}

// ==================== Document Store ====================

// GetDocumentBySourceFile looks a document up by its natural key.
func (s *Store) GetDocumentBySourceFile(_ context.Context, corpusID, sourceFileID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[naturalKey(corpusID, sourceFileID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// UpsertDocument inserts or updates by (CorpusID, SourceFileID).
func (s *Store) UpsertDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.CorpusID == "" || doc.SourceFileID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.corpora[doc.CorpusID]; !ok {
		return fmt.Errorf("corpus %s: %w", doc.CorpusID, domain.ErrNotFound)
	}
	key := naturalKey(doc.CorpusID, doc.SourceFileID)
	if id, ok := s.byKey[key]; ok {
		existing := s.documents[id]
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	} else if doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.documents[doc.ID] = *doc
	s.byKey[key] = doc.ID
	return nil
}

// ListDocuments returns documents for a corpus ordered by name.
func (s *Store) ListDocuments(_ context.Context, corpusID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for _, doc := range s.documents {
		if doc.CorpusID == corpusID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ==================== Chunk Store ====================

// DeleteChunksByDocument removes every chunk of a document.
func (s *Store) DeleteChunksByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

// InsertChunks appends a batch of chunks.
func (s *Store) InsertChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) > s.maxRows {
		return fmt.Errorf("%w: batch of %d exceeds %d rows", domain.ErrInvalidInput, len(chunks), s.maxRows)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if _, ok := s.documents[c.DocumentID]; !ok {
			return fmt.Errorf("document %s: %w", c.DocumentID, domain.ErrNotFound)
		}
	}
	for _, c := range chunks {
		s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], cloneChunk(c))
	}
	return nil
}

// ListChunks returns a document's chunks ordered by index.
func (s *Store) ListChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[documentID]
	result := make([]domain.Chunk, 0, len(stored))
	for _, c := range stored {
		result = append(result, cloneChunk(c))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result, nil
}

// MaxRowsPerInsert returns the chunk batch limit.
func (s *Store) MaxRowsPerInsert() int {
	return s.maxRows
}

// ==================== Vector Search ====================

// SearchChunks scores every chunk in the corpus by cosine similarity.
func (s *Store) SearchChunks(
	_ context.Context, corpusID string, embedding []float32, matchCount int, threshold float64,
) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hits []domain.ScoredChunk
	for docID, chunks := range s.chunks {
		doc, ok := s.documents[docID]
		if !ok || doc.CorpusID != corpusID {
			continue
		}
		for _, c := range chunks {
			hit := domain.ScoredChunk{
				Chunk:        c,
				DocumentName: doc.Name,
				Similarity:   vector.CosineSimilarity(embedding, c.Embedding),
			}
			hit.Chunk.Embedding = nil
			hits = append(hits, hit)
		}
	}
	return vector.TopK(hits, matchCount, threshold), nil
}

func cloneChunk(c domain.Chunk) domain.Chunk {
	c.Embedding = append([]float32(nil), c.Embedding...)
	return c
}
