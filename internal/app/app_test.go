package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-ingest/internal/connectors"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// writeDotenv writes a .env file into a fresh config directory.
func writeDotenv(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	return dir
}

// fakeOllama answers /api/embed with one unit vector per input.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		out := make([][]float64, len(req.Input))
		for i := range out {
			out[i] = []float64{1, 0, 0}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveConfigDir(t *testing.T) {
	dir, err := ResolveConfigDir("/tmp/custom")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", dir)

	t.Setenv("HOME", "/home/tester")
	dir, err = ResolveConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", DefaultConfigDirName), dir)
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), domain.StorageSettings{Driver: domain.StorageMemory}, t.TempDir())

	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestOpenStore_SQLiteDefaultsUnderConfigDir(t *testing.T) {
	configDir := t.TempDir()

	store, err := OpenStore(context.Background(), domain.StorageSettings{Driver: domain.StorageSQLite}, configDir)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Join(configDir, "data", "corpus.db"))
	assert.NoError(t, err)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), domain.StorageSettings{Driver: "mongo"}, t.TempDir())

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestNew_SettingsOnly(t *testing.T) {
	// An unusable provider does not matter when only settings are loaded.
	dir := writeDotenv(t, "SERCHA_EMBEDDING_PROVIDER=openai")

	a, err := New(context.Background(), Options{ConfigDir: dir, SettingsOnly: true})

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, a.Settings.Embedding.Provider)
	assert.NotNil(t, a.SettingsService)
	assert.Nil(t, a.Store)
	assert.Nil(t, a.CorpusService)
	assert.NoError(t, a.Close())
}

func TestNew_InvalidSettings(t *testing.T) {
	dir := writeDotenv(t, "SERCHA_STORAGE_DRIVER=memory", "SERCHA_EMBEDDING_PROVIDER=openai")

	_, err := New(context.Background(), Options{ConfigDir: dir})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNew_SyncAndRetrieveEndToEnd(t *testing.T) {
	ollama := fakeOllama(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "notes.txt"),
		[]byte("Quarterly planning notes for the platform team."), 0o600))

	dir := writeDotenv(t,
		"SERCHA_STORAGE_DRIVER=memory",
		"SERCHA_SOURCE_TYPE=filesystem",
		"SERCHA_SOURCE_FILESYSTEM_ROOT="+root,
		"SERCHA_EMBEDDING_PROVIDER=ollama",
		"SERCHA_EMBEDDING_BASE_URL="+ollama.URL,
		"SERCHA_EMBEDDING_DIMENSIONS=3",
	)

	ctx := context.Background()
	a, err := New(ctx, Options{ConfigDir: dir})
	require.NoError(t, err)
	defer a.Close()

	corpus, err := a.CorpusService.Create(ctx, "Notes", "docs")
	require.NoError(t, err)
	job, err := a.CorpusService.StartJob(ctx, corpus.ID)
	require.NoError(t, err)

	res, err := a.SyncOrchestrator.RunSync(ctx, driving.SyncRequest{CorpusID: corpus.ID, JobID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, res.Status)
	assert.False(t, res.MoreRemaining)
	assert.Equal(t, 1, res.Stats.FilesProcessed)

	out := a.RetrievalService.Retrieve(ctx, domain.RetrievalQuery{Query: "planning", CorpusID: corpus.ID})
	require.True(t, out.Success, out.Error)
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, "notes.txt", out.Chunks[0].DocumentName)
	assert.InDelta(t, 1.0, out.Chunks[0].Similarity, 1e-6)
}

func TestBootstrap_ExposesServices(t *testing.T) {
	dir := writeDotenv(t, "SERCHA_STORAGE_DRIVER=memory", "SERCHA_SERVER_ADDR=:9999")

	svc, cleanup, err := Bootstrap(context.Background(), cli.BootstrapOptions{ConfigDir: dir})
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, svc.Corpus)
	assert.NotNil(t, svc.Profile)
	assert.NotNil(t, svc.Sync)
	assert.NotNil(t, svc.Retrieval)
	assert.NotNil(t, svc.Settings)
	assert.Equal(t, ":9999", svc.Server.Addr)
}

func TestBootstrap_SettingsOnly(t *testing.T) {
	dir := writeDotenv(t)

	svc, cleanup, err := Bootstrap(context.Background(), cli.BootstrapOptions{ConfigDir: dir, SettingsOnly: true})
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Corpus)
	assert.Nil(t, svc.Sync)
}

func TestLazySource_DefersBuildErrors(t *testing.T) {
	boom := errors.New("no credentials")
	calls := 0
	f := connectors.NewFactory()
	f.Register("custom", func(context.Context, domain.SourceSettings) (driven.FileSource, error) {
		calls++
		return nil, boom
	})

	src := newLazySource(context.Background(), f, domain.SourceSettings{Type: "custom"})
	assert.Equal(t, 0, calls)
	assert.Equal(t, "custom", src.Type())

	_, err := src.ListFilesInFolder(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, err = src.DownloadFile(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, src.IsSupportedFile("text/plain"))

	assert.Equal(t, 1, calls)
	assert.NoError(t, src.Close())
}

func TestLazySource_CloseWithoutUse(t *testing.T) {
	calls := 0
	f := connectors.NewFactory()
	f.Register("custom", func(context.Context, domain.SourceSettings) (driven.FileSource, error) {
		calls++
		return nil, errors.New("unused")
	})

	src := newLazySource(context.Background(), f, domain.SourceSettings{Type: "custom"})

	assert.NoError(t, src.Close())
	assert.Equal(t, 0, calls)
}
