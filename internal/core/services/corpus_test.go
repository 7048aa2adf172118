package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestCorpusService_CreateAndStartJob(t *testing.T) {
	ctx := context.Background()
	svc := NewCorpusService(memory.NewStore())

	corpus, err := svc.Create(ctx, "  Marketing  ", "folder-123")
	require.NoError(t, err)
	assert.Equal(t, "Marketing", corpus.Name)
	assert.Equal(t, domain.SyncIdle, corpus.SyncStatus)
	assert.NotEmpty(t, corpus.ID)

	job, err := svc.StartJob(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, corpus.ID, job.CorpusID)

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	docs, err := svc.ListDocuments(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCorpusService_CreateValidation(t *testing.T) {
	svc := NewCorpusService(memory.NewStore())

	_, err := svc.Create(context.Background(), " ", "folder")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(context.Background(), "name", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCorpusService_StartJobResumesRunningSync(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewCorpusService(store)
	corpus, err := svc.Create(ctx, "Docs", "folder")
	require.NoError(t, err)

	first, err := svc.StartJob(ctx, corpus.ID)
	require.NoError(t, err)
	now := time.Now().UTC()
	_, err = store.UpdateJob(ctx, first.ID, domain.JobStarted{At: now})
	require.NoError(t, err)
	_, err = store.UpdateCorpus(ctx, corpus.ID, domain.CorpusSyncStarted{JobID: first.ID, At: now})
	require.NoError(t, err)

	resumed, err := svc.StartJob(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, resumed.ID)
	assert.Equal(t, domain.JobStatusRunning, resumed.Status)

	_, err = store.UpdateJob(ctx, first.ID, domain.JobCompleted{At: now})
	require.NoError(t, err)
	_, err = store.UpdateCorpus(ctx, corpus.ID, domain.CorpusSyncCompleted{At: now})
	require.NoError(t, err)

	next, err := svc.StartJob(ctx, corpus.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
	assert.Equal(t, domain.JobStatusPending, next.Status)
}

func TestCorpusService_StartJobUnknownCorpus(t *testing.T) {
	svc := NewCorpusService(memory.NewStore())

	_, err := svc.StartJob(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(memory.NewStore())

	_, err := svc.Create(ctx, &domain.Profile{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := svc.Create(ctx, &domain.Profile{Name: "Acme", Guidelines: []string{"be clear"}})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
}
