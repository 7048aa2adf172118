package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// CorpusService manages corpora, their jobs and documents.
type CorpusService interface {
	// Create adds a corpus bound to a source folder.
	Create(ctx context.Context, name, sourceFolderID string) (*domain.Corpus, error)

	// Get retrieves a corpus by ID.
	Get(ctx context.Context, id string) (*domain.Corpus, error)

	// List returns all corpora.
	List(ctx context.Context) ([]domain.Corpus, error)

	// StartJob returns the corpus's running job if one exists, otherwise
	// it creates a pending ingestion job.
	StartJob(ctx context.Context, corpusID string) (*domain.IngestionJob, error)

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, id string) (*domain.IngestionJob, error)

	// ListDocuments returns the documents tracked for a corpus.
	ListDocuments(ctx context.Context, corpusID string) ([]domain.Document, error)
}

// ProfileService manages brand profiles.
type ProfileService interface {
	// Create stores a new profile.
	Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)

	// Get retrieves a profile by ID.
	Get(ctx context.Context, id string) (*domain.Profile, error)
}
