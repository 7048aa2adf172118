package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// DefaultMaxRowsPerInsert bounds InsertChunks when no option is given.
const DefaultMaxRowsPerInsert = 100

// Store is an in-memory implementation of driven.Store.
// Every read returns a copy so callers cannot mutate stored state.
type Store struct {
	mu        sync.RWMutex
	corpora   map[string]domain.Corpus
	jobs      map[string]domain.IngestionJob
	documents map[string]domain.Document
	// byKey maps corpusID/sourceFileID to a document ID.
	byKey    map[string]string
	chunks   map[string][]domain.Chunk
	profiles map[string]domain.Profile
	maxRows  int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxRowsPerInsert overrides the chunk batch limit.
func WithMaxRowsPerInsert(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		corpora:   make(map[string]domain.Corpus),
		jobs:      make(map[string]domain.IngestionJob),
		documents: make(map[string]domain.Document),
		byKey:     make(map[string]string),
		chunks:    make(map[string][]domain.Chunk),
		profiles:  make(map[string]domain.Profile),
		maxRows:   DefaultMaxRowsPerInsert,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// ==================== Corpus Store ====================

// CreateCorpus stores a new corpus.
func (s *Store) CreateCorpus(_ context.Context, corpus *domain.Corpus) error {
	if corpus == nil || corpus.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.corpora[corpus.ID]; ok {
		return fmt.Errorf("corpus %s: %w", corpus.ID, domain.ErrAlreadyExists)
	}
	s.corpora[corpus.ID] = cloneCorpus(*corpus)
	return nil
}

// GetCorpus retrieves a corpus by ID.
func (s *Store) GetCorpus(_ context.Context, id string) (*domain.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.corpora[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = cloneCorpus(c)
	return &c, nil
}

// ListCorpora returns every corpus ordered by name.
func (s *Store) ListCorpora(_ context.Context) ([]domain.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Corpus, 0, len(s.corpora))
	for _, c := range s.corpora {
		result = append(result, cloneCorpus(c))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// UpdateCorpus applies an update under the write lock.
func (s *Store) UpdateCorpus(_ context.Context, id string, update domain.CorpusUpdate) (*domain.Corpus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.corpora[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = cloneCorpus(c)
	if err := c.Apply(update); err != nil {
		return nil, err
	}
	s.corpora[id] = c
	out := cloneCorpus(c)
	return &out, nil
}

// ==================== Job Store ====================

// CreateJob stores a new job.
func (s *Store) CreateJob(_ context.Context, job *domain.IngestionJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.corpora[job.CorpusID]; !ok {
		return fmt.Errorf("corpus %s: %w", job.CorpusID, domain.ErrNotFound)
	}
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
	}
	s.jobs[job.ID] = cloneJob(*job)
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(_ context.Context, id string) (*domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	j = cloneJob(j)
	return &j, nil
}

// ListJobs returns jobs for a corpus, newest first.
func (s *Store) ListJobs(_ context.Context, corpusID string) ([]domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.IngestionJob
	for _, j := range s.jobs {
		if j.CorpusID == corpusID {
			result = append(result, cloneJob(j))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateJob applies an update under the write lock.
func (s *Store) UpdateJob(_ context.Context, id string, update domain.JobUpdate) (*domain.IngestionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	j = cloneJob(j)
	if err := j.Apply(update); err != nil {
		return nil, err
	}
	s.jobs[id] = j
	out := cloneJob(j)
	return &out, nil
}

// ==================== Profile Store ====================

// SaveProfile stores or replaces a profile.
func (s *Store) SaveProfile(_ context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *profile
	p.Guidelines = append([]string(nil), profile.Guidelines...)
	s.profiles[p.ID] = p
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Guidelines = append([]string(nil), p.Guidelines...)
	return &p, nil
}

func cloneCorpus(c domain.Corpus) domain.Corpus {
	if c.LastSyncAt != nil {
		at := *c.LastSyncAt
		c.LastSyncAt = &at
	}
	c.LastSyncStats = c.LastSyncStats.Clone()
	return c
}

func cloneJob(j domain.IngestionJob) domain.IngestionJob {
	if j.StartedAt != nil {
		at := *j.StartedAt
		j.StartedAt = &at
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		j.CompletedAt = &at
	}
	j.Stats = j.Stats.Clone()
	return j
}
