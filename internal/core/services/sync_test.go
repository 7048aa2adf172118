package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// countingStore wraps the memory store to observe and break chunk writes.
type countingStore struct {
	*memory.Store
	insertCalls []int
	failInsert  error
}

func (s *countingStore) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	s.insertCalls = append(s.insertCalls, len(chunks))
	if s.failInsert != nil {
		return s.failInsert
	}
	return s.Store.InsertChunks(ctx, chunks)
}

type syncHarness struct {
	store     *countingStore
	source    *mockFileSource
	registry  *mockRegistry
	chunkers  *mockChunkerFactory
	embedding *mockEmbedding
	orch      *SyncOrchestrator
	ids       int
}

var syncEpoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newSyncHarness(t *testing.T, storeOpts ...memory.Option) *syncHarness {
	t.Helper()
	h := &syncHarness{
		store:     &countingStore{Store: memory.NewStore(storeOpts...)},
		source:    newMockFileSource(),
		registry:  newMockRegistry(),
		chunkers:  &mockChunkerFactory{},
		embedding: newMockEmbedding(),
	}
	h.orch = NewSyncOrchestrator(h.store, h.source, h.registry, h.chunkers, NewEmbeddingBatcher(h.embedding),
		WithClock(func() time.Time { return syncEpoch }),
		WithIDGenerator(func() string {
			h.ids++
			return fmt.Sprintf("id-%d", h.ids)
		}),
	)

	ctx := context.Background()
	require.NoError(t, h.store.CreateCorpus(ctx, &domain.Corpus{
		ID: "c1", Name: "Docs", SourceFolderID: "folder-1", SyncStatus: domain.SyncIdle,
		CreatedAt: syncEpoch, UpdatedAt: syncEpoch,
	}))
	return h
}

func (h *syncHarness) newJob(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, h.store.CreateJob(context.Background(), domain.NewIngestionJob(id, "c1", syncEpoch)))
}

func (h *syncHarness) run(t *testing.T, jobID string, batch int) *driving.SyncResult {
	t.Helper()
	result, err := h.orch.RunSync(context.Background(), driving.SyncRequest{CorpusID: "c1", JobID: jobID, BatchSize: batch})
	require.NoError(t, err)
	return result
}

func (h *syncHarness) job(t *testing.T, id string) *domain.IngestionJob {
	t.Helper()
	job, err := h.store.GetJob(context.Background(), id)
	require.NoError(t, err)
	return job
}

func (h *syncHarness) corpus(t *testing.T) *domain.Corpus {
	t.Helper()
	c, err := h.store.GetCorpus(context.Background(), "c1")
	require.NoError(t, err)
	return c
}

func (h *syncHarness) document(t *testing.T, fileID string) *domain.Document {
	t.Helper()
	doc, err := h.store.GetDocumentBySourceFile(context.Background(), "c1", fileID)
	require.NoError(t, err)
	return doc
}

func addFiles(source *mockFileSource, n int) {
	for i := 1; i <= n; i++ {
		source.add(fmt.Sprintf("f%d", i), fmt.Sprintf("file%d.txt", i), "text/plain",
			fmt.Sprintf("first paragraph of %d\n\nsecond paragraph of %d", i, i))
	}
}

func TestRunSync_ValidatesRequest(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	_, err := h.orch.RunSync(ctx, driving.SyncRequest{CorpusID: "c1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.orch.RunSync(ctx, driving.SyncRequest{CorpusID: "c1", JobID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunSync_JobFromAnotherCorpus(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.CreateCorpus(ctx, &domain.Corpus{ID: "c2", Name: "Other", SourceFolderID: "x"}))
	require.NoError(t, h.store.CreateJob(ctx, domain.NewIngestionJob("j-other", "c2", syncEpoch)))

	_, err := h.orch.RunSync(ctx, driving.SyncRequest{CorpusID: "c1", JobID: "j-other"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunSync_BatchedAcrossTicks(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 5)
	h.newJob(t, "j1")

	first := h.run(t, "j1", 3)

	assert.True(t, first.MoreRemaining)
	assert.Equal(t, domain.JobStatusRunning, first.Status)
	assert.Equal(t, domain.SyncRunning, first.CorpusStatus)
	assert.Equal(t, 3, first.Stats.FilesProcessed)
	assert.Equal(t, 5, first.Stats.TotalFiles)
	assert.Equal(t, 6, first.Stats.TotalChunks)
	assert.Equal(t, []string{"f1", "f2", "f3"}, h.source.downloaded())

	job := h.job(t, "j1")
	assert.Equal(t, 3, job.Stats.FilesProcessed)
	assert.Equal(t, domain.StageProcessing, job.Progress.Stage)

	corpus := h.corpus(t)
	assert.Equal(t, domain.SyncRunning, corpus.SyncStatus)
	assert.Equal(t, 3, corpus.LastSyncStats.FilesProcessed)

	second := h.run(t, "j1", 3)

	assert.False(t, second.MoreRemaining)
	assert.Equal(t, domain.JobStatusCompleted, second.Status)
	assert.Equal(t, domain.SyncCompleted, second.CorpusStatus)
	assert.Equal(t, 5, second.Stats.FilesProcessed)
	assert.Equal(t, 0, second.Stats.FilesFailed)
	assert.Equal(t, 4, second.Stats.TotalChunks, "chunks added by this tick")
	assert.Equal(t, 10, second.Stats.ChunksIndexed)
	// Files attempted by the first tick are not downloaded again.
	assert.Equal(t, []string{"f1", "f2", "f3", "f4", "f5"}, h.source.downloaded())

	job = h.job(t, "j1")
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, domain.Progress{Stage: domain.StageFinalizing, Current: 5, Total: 5}, job.Progress)
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, domain.SyncCompleted, h.corpus(t).SyncStatus)
}

func TestRunSync_ExactBatchCompletesInOneTick(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 3)
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.False(t, result.MoreRemaining)
	assert.Equal(t, domain.JobStatusCompleted, result.Status)
}

func TestRunSync_UnchangedFilesSkippedOnNewJob(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 2)
	h.newJob(t, "j1")
	h.run(t, "j1", 10)

	h.newJob(t, "j2")
	result := h.run(t, "j2", 10)

	assert.Equal(t, 2, result.Stats.FilesProcessed)
	assert.Equal(t, 2, result.Stats.FilesSkipped)
	assert.Equal(t, 0, result.Stats.TotalChunks)
	assert.Len(t, h.embedding.batches, 2, "only the first job embeds")

	doc := h.document(t, "f1")
	assert.Equal(t, "j2", doc.LastJobID)
	assert.Equal(t, domain.IndexingIndexed, doc.IndexingStatus)
	assert.Equal(t, 2, doc.ChunkCount)
}

func TestRunSync_UnchangedFilesDoNotSpendBudget(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 5)
	h.newJob(t, "j1")
	require.True(t, h.run(t, "j1", 3).MoreRemaining)

	// A new job finds f1..f3 unchanged and spends its budget on f4 and f5.
	h.newJob(t, "j2")
	result := h.run(t, "j2", 3)

	assert.False(t, result.MoreRemaining)
	assert.Equal(t, domain.JobStatusCompleted, result.Status)
	assert.Equal(t, domain.SyncCompleted, result.CorpusStatus)
	assert.Equal(t, 5, result.Stats.FilesProcessed)
	assert.Equal(t, 3, result.Stats.FilesSkipped)
	assert.Equal(t, 4, result.Stats.TotalChunks)
	assert.Equal(t, []string{"f1", "f2", "f3", "f1", "f2", "f3", "f4", "f5"}, h.source.downloaded())
	assert.Equal(t, domain.IndexingIndexed, h.document(t, "f5").IndexingStatus)
}

func TestRunSync_ChangedFileAfterBudgetWaitsForNextTick(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 3)
	h.newJob(t, "j1")
	h.run(t, "j1", 10)

	h.source.content["f2"] = []byte("rewritten")
	h.source.content["f3"] = []byte("rewritten too")
	h.newJob(t, "j2")

	first := h.run(t, "j2", 1)
	assert.True(t, first.MoreRemaining)
	assert.Equal(t, 2, first.Stats.FilesProcessed)
	assert.Equal(t, 1, first.Stats.FilesSkipped)
	assert.Equal(t, "j1", h.document(t, "f3").LastJobID)

	second := h.run(t, "j2", 1)
	assert.False(t, second.MoreRemaining)
	assert.Equal(t, 3, second.Stats.FilesProcessed)
	assert.Equal(t, Fingerprint("rewritten too"), h.document(t, "f3").ContentHash)
}

func TestRunSync_ResumedJobCompletesAfterStartJob(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 5)
	corpora := NewCorpusService(h.store)
	ctx := context.Background()

	job, err := corpora.StartJob(ctx, "c1")
	require.NoError(t, err)
	require.True(t, h.run(t, job.ID, 3).MoreRemaining)

	// Starting again while the sync is running resumes the same job.
	again, err := corpora.StartJob(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, again.ID)
	assert.Equal(t, domain.JobStatusRunning, again.Status)

	result := h.run(t, again.ID, 3)
	assert.Equal(t, domain.JobStatusCompleted, result.Status)
	assert.Equal(t, []string{"f1", "f2", "f3", "f4", "f5"}, h.source.downloaded())

	jobs, err := h.store.ListJobs(ctx, "c1")
	require.NoError(t, err)
	for _, j := range jobs {
		assert.True(t, j.Status.IsTerminal(), "job %s left %s", j.ID, j.Status)
	}
}

func TestRunSync_ChangedContentReplacesChunks(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("f1", "notes.txt", "text/plain", "alpha\n\nbeta\n\ngamma")
	h.newJob(t, "j1")
	h.run(t, "j1", 10)
	before := h.document(t, "f1")

	h.source.content["f1"] = []byte("delta")
	h.newJob(t, "j2")
	result := h.run(t, "j2", 10)

	assert.Equal(t, 0, result.Stats.FilesSkipped)
	after := h.document(t, "f1")
	assert.Equal(t, before.ID, after.ID)
	assert.NotEqual(t, before.ContentHash, after.ContentHash)
	assert.Equal(t, Fingerprint("delta"), after.ContentHash)

	chunks, err := h.store.ListChunks(context.Background(), after.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "delta", chunks[0].Content)
	assert.Equal(t, "notes.txt", chunks[0].Metadata.FileName)
}

func TestRunSync_NoSupportedFiles(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("img", "photo.png", "image/png", "binary")
	h.source.add("zip", "archive.zip", "application/zip", "binary")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, domain.JobStatusCompleted, result.Status)
	assert.Equal(t, domain.SyncCompleted, result.CorpusStatus)
	assert.Equal(t, 0, result.Stats.TotalFiles)
	assert.Equal(t, MessageNoSupportedFiles, result.Stats.Message)
	assert.Empty(t, h.source.downloaded())
}

func TestRunSync_FileFailureDoesNotStopBatch(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 3)
	h.source.failures["f2"] = errors.New("connection reset")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, domain.JobStatusCompleted, result.Status)
	assert.Equal(t, 2, result.Stats.FilesProcessed)
	assert.Equal(t, 1, result.Stats.FilesFailed)
	require.Len(t, result.Stats.Errors, 1)
	assert.Equal(t, "file2.txt: download: connection reset", result.Stats.Errors[0])

	doc := h.document(t, "f2")
	assert.Equal(t, domain.IndexingError, doc.IndexingStatus)
	assert.Contains(t, doc.ErrorMessage, "connection reset")
	assert.Equal(t, domain.IndexingIndexed, h.document(t, "f3").IndexingStatus)
}

func TestRunSync_FailedFileConsumesBudget(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 3)
	h.source.failures["f1"] = errors.New("boom")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 2)

	assert.True(t, result.MoreRemaining)
	assert.Equal(t, []string{"f1", "f2"}, h.source.downloaded())

	result = h.run(t, "j1", 2)
	assert.False(t, result.MoreRemaining)
	assert.Equal(t, 1, result.Stats.FilesFailed)
	assert.Equal(t, 2, result.Stats.FilesProcessed)
	// The failed file is not retried within the same job.
	assert.Equal(t, []string{"f1", "f2", "f3"}, h.source.downloaded())
}

func TestRunSync_EmptyExtraction(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("f1", "blank.txt", "text/plain", "   \n\t ")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, 1, result.Stats.FilesFailed)
	assert.Equal(t, []string{"blank.txt: No text content extracted"}, result.Stats.Errors)
}

func TestRunSync_WhitespaceChunksExcludedFromEmbedding(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("f1", "notes.txt", "text/plain", "alpha\n\n   \n\nbeta")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, 2, result.Stats.TotalChunks)
	require.Len(t, h.embedding.batches, 1)
	assert.Equal(t, []string{"alpha", "beta"}, h.embedding.batches[0])

	chunks, err := h.store.ListChunks(context.Background(), h.document(t, "f1").ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestRunSync_AllChunksBlankFailsDocument(t *testing.T) {
	h := newSyncHarness(t)
	h.chunkers.split = func(string) []string { return []string{"  ", "\n"} }
	h.source.add("f1", "odd.txt", "text/plain", "content")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, 1, result.Stats.FilesFailed)
	assert.Empty(t, h.embedding.batches)
	doc := h.document(t, "f1")
	assert.Equal(t, domain.IndexingError, doc.IndexingStatus)
	assert.Contains(t, doc.ErrorMessage, domain.ErrNoChunksGenerated.Error())
}

func TestRunSync_EmbeddingFailureKeepsPreviousHash(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("f1", "a.txt", "text/plain", "original")
	h.newJob(t, "j1")
	h.run(t, "j1", 3)
	oldHash := h.document(t, "f1").ContentHash

	h.source.content["f1"] = []byte("edited")
	h.embedding.err = errors.New("provider down")
	h.newJob(t, "j2")
	result := h.run(t, "j2", 3)

	assert.Equal(t, 1, result.Stats.FilesFailed)
	assert.Equal(t, domain.JobStatusCompleted, result.Status)
	doc := h.document(t, "f1")
	assert.Equal(t, oldHash, doc.ContentHash)
	assert.Equal(t, domain.IndexingError, doc.IndexingStatus)

	// A later job retries because the stored hash was not advanced.
	h.embedding.err = nil
	h.newJob(t, "j3")
	result = h.run(t, "j3", 3)
	assert.Equal(t, 0, result.Stats.FilesSkipped)
	assert.Equal(t, Fingerprint("edited"), h.document(t, "f1").ContentHash)
}

func TestRunSync_ChunkInsertsAreBounded(t *testing.T) {
	h := newSyncHarness(t, memory.WithMaxRowsPerInsert(2))
	h.source.add("f1", "long.txt", "text/plain", "a\n\nb\n\nc\n\nd\n\ne")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, 5, result.Stats.TotalChunks)
	assert.Equal(t, []int{2, 2, 1}, h.store.insertCalls)
}

func TestRunSync_StoreWriteFailureIsPerFile(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 2)
	h.store.failInsert = errors.New("disk full")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, 2, result.Stats.FilesFailed)
	assert.Equal(t, domain.JobStatusCompleted, result.Status)
	assert.True(t, strings.Contains(h.document(t, "f1").ErrorMessage, domain.ErrStoreWrite.Error()))
}

func TestRunSync_FailedReplaceClearsChunkCount(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("f1", "a.txt", "text/plain", "one\n\ntwo")
	h.newJob(t, "j1")
	h.run(t, "j1", 3)
	require.Equal(t, 2, h.document(t, "f1").ChunkCount)

	h.source.content["f1"] = []byte("three")
	h.store.failInsert = errors.New("disk full")
	h.newJob(t, "j2")
	result := h.run(t, "j2", 3)

	assert.Equal(t, 1, result.Stats.FilesFailed)
	doc := h.document(t, "f1")
	assert.Equal(t, domain.IndexingError, doc.IndexingStatus)
	assert.Equal(t, 0, doc.ChunkCount)
	chunks, err := h.store.ListChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRunSync_ExportsNativeDocuments(t *testing.T) {
	h := newSyncHarness(t)
	h.source.add("g1", "Plan", "application/vnd.google-apps.document", "exported text")
	h.newJob(t, "j1")

	result := h.run(t, "j1", 3)

	assert.Equal(t, 1, result.Stats.FilesProcessed)
	assert.Equal(t, []string{"g1"}, h.source.exports)
	assert.Empty(t, h.source.downloaded())
}

func TestRunSync_ListingFailureFailsJob(t *testing.T) {
	h := newSyncHarness(t)
	h.source.listErr = errors.New("403 forbidden")
	h.newJob(t, "j1")

	_, err := h.orch.RunSync(context.Background(), driving.SyncRequest{CorpusID: "c1", JobID: "j1"})
	require.ErrorIs(t, err, domain.ErrListing)

	job := h.job(t, "j1")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "403 forbidden")

	corpus := h.corpus(t)
	assert.Equal(t, domain.SyncError, corpus.SyncStatus)
	assert.Contains(t, corpus.LastError, "403 forbidden")
}

func TestRunSync_PanicIsRecordedAsFailure(t *testing.T) {
	h := newSyncHarness(t)
	h.source.listPanic = true
	h.newJob(t, "j1")

	_, err := h.orch.RunSync(context.Background(), driving.SyncRequest{CorpusID: "c1", JobID: "j1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing exploded")
	assert.Equal(t, domain.JobStatusFailed, h.job(t, "j1").Status)
	assert.Equal(t, domain.SyncError, h.corpus(t).SyncStatus)
}

func TestRunSync_TerminalJobRejected(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 1)
	h.newJob(t, "j1")
	h.run(t, "j1", 3)

	_, err := h.orch.RunSync(context.Background(), driving.SyncRequest{CorpusID: "c1", JobID: "j1"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.JobStatusCompleted, h.job(t, "j1").Status)
	assert.Equal(t, domain.SyncCompleted, h.corpus(t).SyncStatus)
}

func TestRunSync_CancelledContextFailsJob(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 2)
	h.newJob(t, "j1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.RunSync(ctx, driving.SyncRequest{CorpusID: "c1", JobID: "j1"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.JobStatusFailed, h.job(t, "j1").Status)
	assert.Empty(t, h.source.downloaded())
}

func TestRunSync_ChunkerClosedAfterTick(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 1)
	h.newJob(t, "j1")

	h.run(t, "j1", 3)

	require.Len(t, h.chunkers.created, 1)
	assert.True(t, h.chunkers.created[0].closed)
}

func TestRunSync_ChunkerFactoryFailure(t *testing.T) {
	h := newSyncHarness(t)
	h.chunkers.err = errors.New("tokenizer missing")
	h.newJob(t, "j1")

	_, err := h.orch.RunSync(context.Background(), driving.SyncRequest{CorpusID: "c1", JobID: "j1"})
	require.Error(t, err)
	assert.Equal(t, domain.JobStatusFailed, h.job(t, "j1").Status)
}

func TestRunSync_FolderOverride(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 1)
	h.newJob(t, "j1")

	result, err := h.orch.RunSync(context.Background(), driving.SyncRequest{
		CorpusID: "c1", JobID: "j1", FolderID: "elsewhere",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, result.Status)
}

func TestRunSync_DefaultBatchSize(t *testing.T) {
	h := newSyncHarness(t)
	addFiles(h.source, 4)
	h.newJob(t, "j1")

	result := h.run(t, "j1", 0)

	assert.True(t, result.MoreRemaining)
	assert.Len(t, h.source.downloaded(), DefaultBatchSize)
}
