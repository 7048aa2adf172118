package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

type mockCorpusService struct {
	corpora   []domain.Corpus
	corpus    *domain.Corpus
	job       *domain.IngestionJob
	documents []domain.Document
	err       error
	started   int
	created   []string
	running   bool
}

func (m *mockCorpusService) Create(_ context.Context, name, folderID string) (*domain.Corpus, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, name+"@"+folderID)
	return &domain.Corpus{ID: "corpus-1", Name: name, SourceFolderID: folderID}, nil
}

func (m *mockCorpusService) Get(_ context.Context, _ string) (*domain.Corpus, error) {
	return m.corpus, m.err
}

func (m *mockCorpusService) List(_ context.Context) ([]domain.Corpus, error) {
	return m.corpora, m.err
}

func (m *mockCorpusService) StartJob(_ context.Context, corpusID string) (*domain.IngestionJob, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.started++
	status := domain.JobStatusPending
	if m.running {
		status = domain.JobStatusRunning
	}
	return &domain.IngestionJob{ID: "job-new", CorpusID: corpusID, Status: status}, nil
}

func (m *mockCorpusService) GetJob(_ context.Context, _ string) (*domain.IngestionJob, error) {
	return m.job, m.err
}

func (m *mockCorpusService) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

// mockSyncOrchestrator returns results in order, repeating the last one.
type mockSyncOrchestrator struct {
	results []*driving.SyncResult
	err     error
	reqs    []driving.SyncRequest
}

func (m *mockSyncOrchestrator) RunSync(_ context.Context, req driving.SyncRequest) (*driving.SyncResult, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.reqs) - 1
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	return m.results[i], nil
}

type mockRetrievalService struct {
	assembled *driving.AssembledContext
	err       error
	lastReq   driving.ContextRequest
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ domain.RetrievalQuery) domain.RetrievalResult {
	return m.assembled.Result
}

func (m *mockRetrievalService) AssembleContext(_ context.Context, req driving.ContextRequest) (*driving.AssembledContext, error) {
	m.lastReq = req
	return m.assembled, m.err
}

type mockProfileService struct {
	created *domain.Profile
	profile *domain.Profile
	err     error
}

func (m *mockProfileService) Create(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = p
	out := *p
	out.ID = "profile-1"
	return &out, nil
}

func (m *mockProfileService) Get(_ context.Context, _ string) (*domain.Profile, error) {
	return m.profile, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
	setProvider domain.AIProvider
	setModel    string
	setKey      string
	pinged      int
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.setProvider, m.setModel, m.setKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	m.pinged++
	return m.pingErr
}

// runCommand executes the root command with args against the given
// services and returns its output. Flag values are reset afterwards.
func runCommand(t *testing.T, svc *Services, args ...string) (string, error) {
	t.Helper()

	oldBootstrap := bootstrap
	bootstrap = nil
	SetServices(svc)
	t.Cleanup(func() {
		bootstrap = oldBootstrap
		SetServices(&Services{})
		resetFlags()
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags() {
	corpusFolderID = ""
	corpusJSON = false
	jobJSON = false
	syncJobID = ""
	syncFolderID = ""
	syncBatchSize = 0
	syncUntilDone = false
	syncMaxTicks = 1000
	retrieveCount = domain.DefaultMatchCount
	retrieveThreshold = domain.DefaultMatchThreshold
	retrieveProfileID = ""
	retrieveContext = false
	retrieveJSON = false
	profileBrandVoice = ""
	profileAudience = ""
	profileDescription = ""
	profileGuidelines = ""
	embeddingProvider = ""
	embeddingModel = ""
	embeddingAPIKey = ""
	embeddingSkipPing = false
	verbose = false
	configPath = ""
}
