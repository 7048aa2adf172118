package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ensure CorpusService and ProfileService implement the interfaces.
var (
	_ driving.CorpusService  = (*CorpusService)(nil)
	_ driving.ProfileService = (*ProfileService)(nil)
)

// CorpusService manages corpora, jobs and their documents.
type CorpusService struct {
	corpora driven.CorpusStore
	jobs    driven.JobStore
	docs    driven.DocumentStore
}

// NewCorpusService creates a new corpus service.
func NewCorpusService(store driven.Store) *CorpusService {
	return &CorpusService{
		corpora: store,
		jobs:    store,
		docs:    store,
	}
}

// Create adds a corpus bound to a source folder.
func (s *CorpusService) Create(ctx context.Context, name, sourceFolderID string) (*domain.Corpus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: corpus name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(sourceFolderID) == "" {
		return nil, fmt.Errorf("%w: source folder is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	corpus := &domain.Corpus{
		ID:             uuid.New().String(),
		Name:           name,
		SourceFolderID: sourceFolderID,
		SyncStatus:     domain.SyncIdle,
		LastSyncStats:  domain.SyncStats{Errors: []string{}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.corpora.CreateCorpus(ctx, corpus); err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}
	return corpus, nil
}

// Get retrieves a corpus by ID.
func (s *CorpusService) Get(ctx context.Context, id string) (*domain.Corpus, error) {
	return s.corpora.GetCorpus(ctx, id)
}

// List returns all corpora.
func (s *CorpusService) List(ctx context.Context) ([]domain.Corpus, error) {
	return s.corpora.ListCorpora(ctx)
}

// StartJob returns the corpus's running job, or creates a pending one when
// no sync is in progress.
func (s *CorpusService) StartJob(ctx context.Context, corpusID string) (*domain.IngestionJob, error) {
	corpus, err := s.corpora.GetCorpus(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}

	if corpus.SyncStatus == domain.SyncRunning && corpus.ActiveJobID != "" {
		active, err := s.jobs.GetJob(ctx, corpus.ActiveJobID)
		switch {
		case err == nil && !active.Status.IsTerminal():
			return active, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("get active job: %w", err)
		}
	}

	job := domain.NewIngestionJob(uuid.New().String(), corpusID, time.Now().UTC())
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// GetJob retrieves a job by ID.
func (s *CorpusService) GetJob(ctx context.Context, id string) (*domain.IngestionJob, error) {
	return s.jobs.GetJob(ctx, id)
}

// ListDocuments returns the documents tracked for a corpus.
func (s *CorpusService) ListDocuments(ctx context.Context, corpusID string) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx, corpusID)
}

// ProfileService manages brand profiles.
type ProfileService struct {
	profiles driven.ProfileStore
}

// NewProfileService creates a new profile service.
func NewProfileService(profiles driven.ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Create stores a new profile, assigning an ID when missing.
func (s *ProfileService) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return nil, fmt.Errorf("%w: profile name is required", domain.ErrInvalidInput)
	}
	p := *profile
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.profiles.SaveProfile(ctx, &p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &p, nil
}

// Get retrieves a profile by ID.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}
