package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// ==================== Document Store ====================

const documentColumns = `id, corpus_id, source_file_id, name, mime_type, path, size, source_modified_at,
	content_hash, indexing_status, chunk_count, last_job_id, error_message, created_at, updated_at`

// GetDocumentBySourceFile looks a document up by its natural key.
func (s *Store) GetDocumentBySourceFile(ctx context.Context, corpusID, sourceFileID string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE corpus_id = ? AND source_file_id = ?
	`, corpusID, sourceFileID)
	return scanDocument(row)
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
}

// UpsertDocument inserts or updates by (corpus_id, source_file_id).
// The stored id and created_at are written back into doc.
func (s *Store) UpsertDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.CorpusID == "" || doc.SourceFileID == "" || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(corpus_id, source_file_id) DO UPDATE SET
			name = excluded.name,
			mime_type = excluded.mime_type,
			path = excluded.path,
			size = excluded.size,
			source_modified_at = excluded.source_modified_at,
			content_hash = excluded.content_hash,
			indexing_status = excluded.indexing_status,
			chunk_count = excluded.chunk_count,
			last_job_id = excluded.last_job_id,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`, doc.ID, doc.CorpusID, doc.SourceFileID, doc.Name, doc.MIMEType, doc.Path, doc.Size,
		nullTimeValue(doc.SourceModifiedAt), doc.ContentHash, string(doc.IndexingStatus), doc.ChunkCount,
		doc.LastJobID, doc.ErrorMessage, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("corpus %s: %w", doc.CorpusID, domain.ErrNotFound)
		}
		return fmt.Errorf("upserting document: %w", err)
	}
	return nil
}

// ListDocuments returns documents for a corpus ordered by name.
func (s *Store) ListDocuments(ctx context.Context, corpusID string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE corpus_id = ? ORDER BY name, id
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var modified sql.NullTime
	if err := row.Scan(&doc.ID, &doc.CorpusID, &doc.SourceFileID, &doc.Name, &doc.MIMEType, &doc.Path,
		&doc.Size, &modified, &doc.ContentHash, &status, &doc.ChunkCount, &doc.LastJobID,
		&doc.ErrorMessage, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.IndexingStatus = domain.IndexingStatus(status)
	if modified.Valid {
		doc.SourceModifiedAt = modified.Time
	}
	return &doc, nil
}

// ==================== Chunk Store ====================

const chunkColumns = `id, document_id, corpus_id, chunk_index, content, token_count, embedding, metadata`

// DeleteChunksByDocument removes every chunk of a document.
func (s *Store) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// InsertChunks writes a batch in a single multi-row statement.
func (s *Store) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) > s.maxRows {
		return fmt.Errorf("%w: batch of %d exceeds %d rows", domain.ErrInvalidInput, len(chunks), s.maxRows)
	}

	placeholders := make([]string, 0, len(chunks))
	args := make([]any, 0, len(chunks)*8)
	for _, c := range chunks {
		metadata, err := marshalJSON(c.Metadata)
		if err != nil {
			return err
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, c.ID, c.DocumentID, c.CorpusID, c.Index, c.Content, c.TokenCount,
			vector.Encode(c.Embedding), metadata)
	}

	query := `INSERT INTO chunks (` + chunkColumns + `) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("chunk document: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("inserting chunks: %w", err)
	}
	return nil
}

// ListChunks returns a document's chunks ordered by index.
func (s *Store) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var c domain.Chunk
	var embedding []byte
	var metadata string
	if err := row.Scan(&c.ID, &c.DocumentID, &c.CorpusID, &c.Index, &c.Content, &c.TokenCount,
		&embedding, &metadata); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	c.Embedding = vector.Decode(embedding)
	if err := unmarshalJSON(metadata, &c.Metadata); err != nil {
		return nil, err
	}
	return &c, nil
}

// ==================== Vector Search ====================

// SearchChunks scores the corpus's chunks in process. SQLite has no native
// vector index, so every embedding in the corpus is read once per query.
func (s *Store) SearchChunks(
	ctx context.Context, corpusID string, embedding []float32, matchCount int, threshold float64,
) ([]domain.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.corpus_id, c.chunk_index, c.content, c.token_count,
			c.embedding, c.metadata, d.name
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE c.corpus_id = ?
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks for search: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredChunk
	for rows.Next() {
		var hit domain.ScoredChunk
		var blob []byte
		var metadata string
		c := &hit.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.CorpusID, &c.Index, &c.Content, &c.TokenCount,
			&blob, &metadata, &hit.DocumentName); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		hit.Similarity = vector.CosineSimilarity(embedding, vector.Decode(blob))
		if hit.Similarity < threshold {
			continue
		}
		if err := unmarshalJSON(metadata, &c.Metadata); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}
	return vector.TopK(hits, matchCount, threshold), nil
}
