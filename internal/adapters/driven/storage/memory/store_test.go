package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedCorpus(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.CreateCorpus(context.Background(), &domain.Corpus{
		ID:             id,
		Name:           "corpus " + id,
		SourceFolderID: "folder-" + id,
		SyncStatus:     domain.SyncIdle,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
}

func TestStore_CreateCorpus_Duplicate(t *testing.T) {
	s := NewStore()
	seedCorpus(t, s, "c1")

	err := s.CreateCorpus(context.Background(), &domain.Corpus{ID: "c1"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_GetCorpus_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetCorpus(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpdateCorpus_RejectedUpdateWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCorpus(t, s, "c1")

	_, err := s.UpdateCorpus(ctx, "c1", domain.CorpusSyncCompleted{At: now})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	c, err := s.GetCorpus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncIdle, c.SyncStatus)
	assert.Nil(t, c.LastSyncAt)
}

func TestStore_UpdateCorpus_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCorpus(t, s, "c1")

	c, err := s.UpdateCorpus(ctx, "c1", domain.CorpusSyncStarted{JobID: "j1", At: now})
	require.NoError(t, err)
	c.Name = "mutated"

	stored, err := s.GetCorpus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "corpus c1", stored.Name)
	assert.Equal(t, domain.SyncRunning, stored.SyncStatus)
	assert.Equal(t, "j1", stored.ActiveJobID)
}

func TestStore_ListCorpora_SortedByName(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCorpus(t, s, "b")
	seedCorpus(t, s, "a")

	list, err := s.ListCorpora(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
}

func TestStore_Jobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCorpus(t, s, "c1")

	require.NoError(t, s.CreateJob(ctx, domain.NewIngestionJob("j1", "c1", now)))
	require.NoError(t, s.CreateJob(ctx, domain.NewIngestionJob("j2", "c1", now.Add(time.Minute))))

	err := s.CreateJob(ctx, domain.NewIngestionJob("j3", "missing", now))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	jobs, err := s.ListJobs(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j2", jobs[0].ID)

	job, err := s.UpdateJob(ctx, "j1", domain.JobStarted{At: now})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, job.Status)

	job, err = s.UpdateJob(ctx, "j1", domain.JobCompleted{At: now})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)

	_, err = s.UpdateJob(ctx, "j1", domain.JobStarted{At: now})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.UpdateJob(ctx, "nope", domain.JobStarted{At: now})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpsertDocument_KeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCorpus(t, s, "c1")

	first := &domain.Document{ID: "d1", CorpusID: "c1", SourceFileID: "f1", Name: "a.txt", CreatedAt: now}
	require.NoError(t, s.UpsertDocument(ctx, first))

	second := &domain.Document{ID: "other", CorpusID: "c1", SourceFileID: "f1", Name: "a.txt",
		ContentHash: "h", CreatedAt: now.Add(time.Hour)}
	require.NoError(t, s.UpsertDocument(ctx, second))

	assert.Equal(t, "d1", second.ID)
	assert.Equal(t, now, second.CreatedAt)

	got, err := s.GetDocumentBySourceFile(ctx, "c1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "h", got.ContentHash)

	docs, err := s.ListDocuments(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_UpsertDocument_UnknownCorpus(t *testing.T) {
	s := NewStore()
	err := s.UpsertDocument(context.Background(), &domain.Document{ID: "d", CorpusID: "x", SourceFileID: "f"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetDocumentBySourceFile_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetDocumentBySourceFile(context.Background(), "c1", "f1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Chunks(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithMaxRowsPerInsert(2))
	seedCorpus(t, s, "c1")
	require.NoError(t, s.UpsertDocument(ctx, &domain.Document{ID: "d1", CorpusID: "c1", SourceFileID: "f1"}))

	assert.Equal(t, 2, s.MaxRowsPerInsert())

	err := s.InsertChunks(ctx, make([]domain.Chunk, 3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, s.InsertChunks(ctx, []domain.Chunk{
		{ID: "k1", DocumentID: "d1", CorpusID: "c1", Index: 1, Content: "b"},
		{ID: "k0", DocumentID: "d1", CorpusID: "c1", Index: 0, Content: "a"},
	}))

	chunks, err := s.ListChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "k0", chunks[0].ID)

	require.NoError(t, s.DeleteChunksByDocument(ctx, "d1"))
	chunks, err = s.ListChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_InsertChunks_UnknownDocument(t *testing.T) {
	s := NewStore()
	err := s.InsertChunks(context.Background(), []domain.Chunk{{ID: "k", DocumentID: "nope"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SearchChunks(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCorpus(t, s, "c1")
	seedCorpus(t, s, "c2")
	require.NoError(t, s.UpsertDocument(ctx, &domain.Document{ID: "d1", CorpusID: "c1", SourceFileID: "f1", Name: "one.txt"}))
	require.NoError(t, s.UpsertDocument(ctx, &domain.Document{ID: "d2", CorpusID: "c2", SourceFileID: "f2", Name: "two.txt"}))
	require.NoError(t, s.InsertChunks(ctx, []domain.Chunk{
		{ID: "near", DocumentID: "d1", CorpusID: "c1", Content: "near", Embedding: []float32{1, 0.1}},
		{ID: "far", DocumentID: "d1", CorpusID: "c1", Content: "far", Embedding: []float32{0, 1}},
	}))
	require.NoError(t, s.InsertChunks(ctx, []domain.Chunk{
		{ID: "other", DocumentID: "d2", CorpusID: "c2", Content: "other", Embedding: []float32{1, 0}},
	}))

	hits, err := s.SearchChunks(ctx, "c1", []float32{1, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].Chunk.ID)
	assert.Equal(t, "one.txt", hits[0].DocumentName)
	assert.Nil(t, hits[0].Chunk.Embedding)
	assert.Greater(t, hits[0].Similarity, 0.9)
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetProfile(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SaveProfile(ctx, &domain.Profile{ID: "p1", Name: "Acme", Guidelines: []string{"be brief"}}))
	p, err := s.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)
	assert.Equal(t, []string{"be brief"}, p.Guidelines)
}
