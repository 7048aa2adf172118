package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	assembled *driving.AssembledContext
	err       error
	lastReq   driving.ContextRequest
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ domain.RetrievalQuery) domain.RetrievalResult {
	if m.assembled == nil {
		return domain.RetrievalResult{Success: true}
	}
	return m.assembled.Result
}

func (m *mockRetrievalService) AssembleContext(
	_ context.Context,
	req driving.ContextRequest,
) (*driving.AssembledContext, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.assembled == nil {
		return &driving.AssembledContext{Result: domain.RetrievalResult{Success: true}}, nil
	}
	return m.assembled, nil
}

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	corpora   []domain.Corpus
	corpus    *domain.Corpus
	job       *domain.IngestionJob
	documents []domain.Document
	err       error
}

func (m *mockCorpusService) Create(_ context.Context, name, folderID string) (*domain.Corpus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Corpus{ID: "corpus-new", Name: name, SourceFolderID: folderID, SyncStatus: domain.SyncIdle}, nil
}

func (m *mockCorpusService) Get(_ context.Context, _ string) (*domain.Corpus, error) {
	return m.corpus, m.err
}

func (m *mockCorpusService) List(_ context.Context) ([]domain.Corpus, error) {
	return m.corpora, m.err
}

func (m *mockCorpusService) StartJob(_ context.Context, _ string) (*domain.IngestionJob, error) {
	return m.job, m.err
}

func (m *mockCorpusService) GetJob(_ context.Context, _ string) (*domain.IngestionJob, error) {
	return m.job, m.err
}

func (m *mockCorpusService) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}
