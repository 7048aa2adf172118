package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// CorpusStore persists corpora.
type CorpusStore interface {
	// CreateCorpus stores a new corpus.
	CreateCorpus(ctx context.Context, corpus *domain.Corpus) error

	// GetCorpus retrieves a corpus by ID. Returns domain.ErrNotFound if absent.
	GetCorpus(ctx context.Context, id string) (*domain.Corpus, error)

	// ListCorpora returns every corpus ordered by name.
	ListCorpora(ctx context.Context) ([]domain.Corpus, error)

	// UpdateCorpus loads the corpus, applies the update and saves it.
	// Rejected updates return domain.ErrInvalidTransition and write nothing.
	UpdateCorpus(ctx context.Context, id string, update domain.CorpusUpdate) (*domain.Corpus, error)
}

// JobStore persists ingestion jobs.
type JobStore interface {
	// CreateJob stores a new job.
	CreateJob(ctx context.Context, job *domain.IngestionJob) error

	// GetJob retrieves a job by ID. Returns domain.ErrNotFound if absent.
	GetJob(ctx context.Context, id string) (*domain.IngestionJob, error)

	// ListJobs returns jobs for a corpus, newest first.
	ListJobs(ctx context.Context, corpusID string) ([]domain.IngestionJob, error)

	// UpdateJob loads the job, applies the update and saves it.
	// Rejected updates return domain.ErrInvalidTransition and write nothing.
	UpdateJob(ctx context.Context, id string, update domain.JobUpdate) (*domain.IngestionJob, error)
}

// DocumentStore persists documents keyed by (corpus, source file).
type DocumentStore interface {
	// GetDocumentBySourceFile returns domain.ErrNotFound if the file is untracked.
	GetDocumentBySourceFile(ctx context.Context, corpusID, sourceFileID string) (*domain.Document, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// UpsertDocument inserts or updates by natural key. On update the existing
	// ID and CreatedAt are kept and written back into doc.
	UpsertDocument(ctx context.Context, doc *domain.Document) error

	// ListDocuments returns documents for a corpus ordered by name.
	ListDocuments(ctx context.Context, corpusID string) ([]domain.Document, error)
}

// ChunkStore persists chunks. Chunks are replaced as a set, never updated.
type ChunkStore interface {
	// DeleteChunksByDocument removes every chunk of a document.
	DeleteChunksByDocument(ctx context.Context, documentID string) error

	// InsertChunks writes one batch of chunks. Callers bound the batch size
	// by MaxRowsPerInsert.
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// ListChunks returns a document's chunks ordered by index.
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// MaxRowsPerInsert is the largest batch InsertChunks accepts.
	MaxRowsPerInsert() int
}

// VectorSearcher performs similarity search over a corpus.
type VectorSearcher interface {
	// SearchChunks returns up to matchCount chunks with similarity at or above
	// threshold, ordered by descending similarity. Similarity is 1 - cosine distance.
	SearchChunks(ctx context.Context, corpusID string, embedding []float32, matchCount int, threshold float64) ([]domain.ScoredChunk, error)
}

// ProfileStore persists brand profiles.
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile *domain.Profile) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
}

// Store is the full corpus store adapter.
type Store interface {
	CorpusStore
	JobStore
	DocumentStore
	ChunkStore
	VectorSearcher
	ProfileStore

	// Close releases resources.
	Close() error
}
