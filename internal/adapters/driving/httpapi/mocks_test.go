package httpapi

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

type mockCorpusService struct {
	corpora   map[string]*domain.Corpus
	jobs      map[string]*domain.IngestionJob
	documents []domain.Document
	err       error
	started   int
}

func newMockCorpusService() *mockCorpusService {
	return &mockCorpusService{
		corpora: map[string]*domain.Corpus{},
		jobs:    map[string]*domain.IngestionJob{},
	}
}

func (m *mockCorpusService) Create(_ context.Context, name, folderID string) (*domain.Corpus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if name == "" || folderID == "" {
		return nil, domain.ErrInvalidInput
	}
	c := &domain.Corpus{ID: "corpus-new", Name: name, SourceFolderID: folderID, SyncStatus: domain.SyncIdle}
	m.corpora[c.ID] = c
	return c, nil
}

func (m *mockCorpusService) Get(_ context.Context, id string) (*domain.Corpus, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.corpora[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *mockCorpusService) List(_ context.Context) ([]domain.Corpus, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Corpus, 0, len(m.corpora))
	for _, c := range m.corpora {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCorpusService) StartJob(_ context.Context, corpusID string) (*domain.IngestionJob, error) {
	if _, ok := m.corpora[corpusID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.started++
	job := &domain.IngestionJob{ID: "job-started", CorpusID: corpusID, Status: domain.JobStatusPending}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockCorpusService) GetJob(_ context.Context, id string) (*domain.IngestionJob, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

func (m *mockCorpusService) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

type mockSyncOrchestrator struct {
	mu      sync.Mutex
	result  *driving.SyncResult
	err     error
	lastReq driving.SyncRequest
	calls   int
	block   chan struct{}
	entered chan struct{}
}

func (m *mockSyncOrchestrator) RunSync(_ context.Context, req driving.SyncRequest) (*driving.SyncResult, error) {
	m.mu.Lock()
	m.lastReq = req
	m.calls++
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &driving.SyncResult{
		JobID:        req.JobID,
		Status:       domain.JobStatusCompleted,
		CorpusStatus: domain.SyncCompleted,
	}, nil
}

type mockRetrievalService struct {
	assembled *driving.AssembledContext
	err       error
	lastReq   driving.ContextRequest
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ domain.RetrievalQuery) domain.RetrievalResult {
	return domain.RetrievalResult{Success: true}
}

func (m *mockRetrievalService) AssembleContext(_ context.Context, req driving.ContextRequest) (*driving.AssembledContext, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.assembled != nil {
		return m.assembled, nil
	}
	return &driving.AssembledContext{Result: domain.RetrievalResult{Chunks: []domain.ScoredChunk{}, Success: true}}, nil
}

type mockProfileService struct {
	profiles map[string]*domain.Profile
}

func (m *mockProfileService) Create(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	p.ID = "profile-1"
	m.profiles[p.ID] = p
	return p, nil
}

func (m *mockProfileService) Get(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
