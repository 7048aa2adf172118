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
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// DefaultBatchSize is the number of files downloaded per tick.
const DefaultBatchSize = 3

// DefaultMaxRowsPerInsert bounds one chunk insert when the store reports no limit.
const DefaultMaxRowsPerInsert = 100

// MessageNoSupportedFiles is recorded when a folder has nothing to index.
const MessageNoSupportedFiles = "No supported files found in folder"

// SyncOrchestrator runs batch-bounded, resumable sync ticks for a corpus.
// Ticks of the same job are serialised by the caller.
type SyncOrchestrator struct {
	corpora  driven.CorpusStore
	jobs     driven.JobStore
	docs     driven.DocumentStore
	chunks   driven.ChunkStore
	source   driven.FileSource
	registry driven.NormaliserRegistry
	chunkers driven.ChunkerFactory
	embedder *EmbeddingBatcher

	batchSize int
	now       func() time.Time
	newID     func() string
}

// SyncOption configures a SyncOrchestrator.
type SyncOption func(*SyncOrchestrator)

// WithDefaultBatchSize sets the batch size used when a request omits one.
func WithDefaultBatchSize(size int) SyncOption {
	return func(o *SyncOrchestrator) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SyncOption {
	return func(o *SyncOrchestrator) {
		o.now = now
	}
}

// WithIDGenerator overrides document and chunk ID generation.
func WithIDGenerator(newID func() string) SyncOption {
	return func(o *SyncOrchestrator) {
		o.newID = newID
	}
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	store driven.Store,
	source driven.FileSource,
	registry driven.NormaliserRegistry,
	chunkers driven.ChunkerFactory,
	embedder *EmbeddingBatcher,
	opts ...SyncOption,
) *SyncOrchestrator {
	o := &SyncOrchestrator{
		corpora:   store,
		jobs:      store,
		docs:      store,
		chunks:    store,
		source:    source,
		registry:  registry,
		chunkers:  chunkers,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// tick carries the state of one RunSync invocation.
type tick struct {
	corpus   *domain.Corpus
	jobID    string
	folderID string
	budget   int
	stats    domain.SyncStats
	chunker  driven.Chunker
}

// fileOutcome is the result of one successfully handled file.
type fileOutcome struct {
	skipped bool
	chunks  int
}

// RunSync processes up to req.BatchSize files and persists progress.
// Re-invoking a terminal job returns domain.ErrInvalidTransition and writes nothing.
func (o *SyncOrchestrator) RunSync(ctx context.Context, req driving.SyncRequest) (*driving.SyncResult, error) {
	if req.CorpusID == "" || req.JobID == "" {
		return nil, fmt.Errorf("%w: corpus and job IDs are required", domain.ErrInvalidInput)
	}

	job, err := o.jobs.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.CorpusID != req.CorpusID {
		return nil, fmt.Errorf("%w: job %s belongs to corpus %s", domain.ErrInvalidInput, job.ID, job.CorpusID)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: job %s is already %s", domain.ErrInvalidTransition, job.ID, job.Status)
	}

	corpus, err := o.corpora.GetCorpus(ctx, req.CorpusID)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}

	folderID := req.FolderID
	if folderID == "" {
		folderID = corpus.SourceFolderID
	}
	if folderID == "" {
		return nil, fmt.Errorf("%w: corpus %s has no source folder", domain.ErrInvalidInput, corpus.ID)
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = o.batchSize
	}

	// Counters accumulate across ticks of the same job.
	stats := job.Stats.Clone()
	stats.TotalChunks = 0
	if stats.Errors == nil {
		stats.Errors = []string{}
	}

	t := &tick{
		corpus:   corpus,
		jobID:    job.ID,
		folderID: folderID,
		budget:   batchSize,
		stats:    stats,
	}

	logger.Section("Sync")
	logger.Info("Sync tick: corpus=%s job=%s folder=%s batch=%d", corpus.ID, job.ID, folderID, batchSize)

	result, err := o.runTick(ctx, t)
	if err != nil {
		o.recordFailure(ctx, t, err)
		return nil, err
	}
	return result, nil
}

// runTick executes one tick. Panics are converted into errors so the
// caller records them as a failed job.
func (o *SyncOrchestrator) runTick(ctx context.Context, t *tick) (result *driving.SyncResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panic: %v", r)
		}
	}()

	now := o.now()
	if _, err := o.jobs.UpdateJob(ctx, t.jobID, domain.JobStarted{At: now}); err != nil {
		return nil, fmt.Errorf("start job: %w", err)
	}
	if _, err := o.corpora.UpdateCorpus(ctx, t.corpus.ID, domain.CorpusSyncStarted{JobID: t.jobID, At: now}); err != nil {
		return nil, fmt.Errorf("start corpus sync: %w", err)
	}

	chunker, err := o.chunkers.NewChunker()
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}
	defer func() {
		if cerr := chunker.Close(); cerr != nil {
			logger.Warn("Failed to close chunker: %v", cerr)
		}
	}()
	t.chunker = chunker

	if err := o.progress(ctx, t.jobID, domain.StageListing, 0, 0); err != nil {
		return nil, err
	}

	files, err := o.source.ListFilesInFolder(ctx, t.folderID)
	if err != nil {
		return nil, domain.NewListingError(t.folderID, err)
	}

	supported := o.filterSupported(files)
	t.stats.TotalFiles = len(supported)
	logger.Debug("Listed %d files, %d supported", len(files), len(supported))

	if len(supported) == 0 {
		t.stats.Message = MessageNoSupportedFiles
		return o.finish(ctx, t, false)
	}

	more, err := o.walk(ctx, t, supported)
	if err != nil {
		return nil, err
	}
	return o.finish(ctx, t, more)
}

// walk processes supported files in listing order until the budget is spent.
// It returns true when a file that still needs work was left for a later tick.
func (o *SyncOrchestrator) walk(ctx context.Context, t *tick, files []domain.SourceFile) (bool, error) {
	total := len(files)

	for i := range files {
		file := files[i]
		if err := ctx.Err(); err != nil {
			return false, err
		}

		existing, err := o.docs.GetDocumentBySourceFile(ctx, t.corpus.ID, file.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("look up document %s: %w", file.ID, err)
		}
		if err != nil {
			existing = nil
		}

		// Already attempted by an earlier tick of this job.
		if existing != nil && existing.LastJobID == t.jobID {
			if err := o.progress(ctx, t.jobID, domain.StageProcessing, i+1, total); err != nil {
				return false, err
			}
			continue
		}

		// Only an indexed document can turn out unchanged, so anything else
		// needs budget before it is downloaded.
		indexed := existing != nil && existing.IndexingStatus == domain.IndexingIndexed
		if !indexed && t.budget == 0 {
			return true, nil
		}

		logger.Debug("Processing %s (%s)", file.Name, file.MIMEType)
		outcome, err := o.processFile(ctx, t, file, existing)
		if errors.Is(err, errBudgetSpent) {
			return true, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			fpe := &domain.FileProcessingError{FileName: file.Name, Err: err}
			t.stats.AddError(fpe.Message())
			logger.Warn("Failed to process %v", fpe)
		} else {
			t.stats.FilesProcessed++
			if outcome.skipped {
				t.stats.FilesSkipped++
			}
			t.stats.TotalChunks += outcome.chunks
			t.stats.ChunksIndexed += outcome.chunks
		}

		if err := o.progress(ctx, t.jobID, domain.StageProcessing, i+1, total); err != nil {
			return false, err
		}
	}

	return false, nil
}

// finish persists the end-of-tick state for job and corpus.
func (o *SyncOrchestrator) finish(ctx context.Context, t *tick, more bool) (*driving.SyncResult, error) {
	now := o.now()

	var (
		job    *domain.IngestionJob
		corpus *domain.Corpus
		err    error
	)

	if more {
		if job, err = o.jobs.UpdateJob(ctx, t.jobID, domain.JobCheckpointed{Stats: t.stats, At: now}); err != nil {
			return nil, fmt.Errorf("checkpoint job: %w", err)
		}
		if corpus, err = o.corpora.UpdateCorpus(ctx, t.corpus.ID, domain.CorpusSyncCheckpointed{Stats: t.stats, At: now}); err != nil {
			return nil, fmt.Errorf("checkpoint corpus: %w", err)
		}
		logger.Info("Tick done, more remaining: %d processed, %d failed of %d",
			t.stats.FilesProcessed, t.stats.FilesFailed, t.stats.TotalFiles)
	} else {
		if t.stats.TotalFiles > 0 {
			if err := o.progress(ctx, t.jobID, domain.StageFinalizing, t.stats.TotalFiles, t.stats.TotalFiles); err != nil {
				return nil, err
			}
		}
		if job, err = o.jobs.UpdateJob(ctx, t.jobID, domain.JobCompleted{Stats: t.stats, At: now}); err != nil {
			return nil, fmt.Errorf("complete job: %w", err)
		}
		if corpus, err = o.corpora.UpdateCorpus(ctx, t.corpus.ID, domain.CorpusSyncCompleted{Stats: t.stats, At: now}); err != nil {
			return nil, fmt.Errorf("complete corpus: %w", err)
		}
		logger.Info("Sync complete: %d processed, %d skipped, %d failed, %d chunks",
			t.stats.FilesProcessed, t.stats.FilesSkipped, t.stats.FilesFailed, t.stats.ChunksIndexed)
	}

	return &driving.SyncResult{
		JobID:         job.ID,
		Status:        job.Status,
		CorpusStatus:  corpus.SyncStatus,
		MoreRemaining: more,
		Stats:         t.stats.Clone(),
	}, nil
}

// recordFailure marks the job and corpus failed. It is best-effort and
// uses a context that survives cancellation of the tick.
func (o *SyncOrchestrator) recordFailure(ctx context.Context, t *tick, cause error) {
	ctx = context.WithoutCancel(ctx)
	now := o.now()
	msg := cause.Error()

	logger.Error("Sync failed for corpus %s job %s: %v", t.corpus.ID, t.jobID, cause)

	if _, err := o.jobs.UpdateJob(ctx, t.jobID, domain.JobFailed{Message: msg, Stats: t.stats, At: now}); err != nil {
		logger.Warn("Failed to record job failure: %v", err)
	}
	if _, err := o.corpora.UpdateCorpus(ctx, t.corpus.ID, domain.CorpusSyncFailed{Message: msg, Stats: t.stats, At: now}); err != nil {
		logger.Warn("Failed to record corpus failure: %v", err)
	}
}

func (o *SyncOrchestrator) progress(ctx context.Context, jobID, stage string, current, total int) error {
	update := domain.JobProgressed{Progress: domain.Progress{Stage: stage, Current: current, Total: total}}
	if _, err := o.jobs.UpdateJob(ctx, jobID, update); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// filterSupported keeps files the source can deliver and a normaliser can read.
func (o *SyncOrchestrator) filterSupported(files []domain.SourceFile) []domain.SourceFile {
	out := make([]domain.SourceFile, 0, len(files))
	for _, f := range files {
		if !o.source.IsSupportedFile(f.MIMEType) {
			continue
		}
		mime := f.MIMEType
		if exportMIME, ok := o.source.IsExportable(f.MIMEType); ok {
			mime = exportMIME
		}
		if !o.registry.Supports(mime) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// errBudgetSpent reports a changed file found after the tick's budget ran out.
var errBudgetSpent = errors.New("batch budget spent")

// processFile runs the per-file pipeline. Unchanged files are touched
// without spending budget; every other outcome spends one unit. Every
// failure leaves the document in a non-indexed state with its previous
// content hash.
func (o *SyncOrchestrator) processFile(
	ctx context.Context,
	t *tick,
	file domain.SourceFile,
	existing *domain.Document,
) (fileOutcome, error) {
	// 1. FETCH AND NORMALISE
	text, err := o.fetchText(ctx, file)
	if err != nil {
		if t.budget == 0 {
			return fileOutcome{}, errBudgetSpent
		}
		t.budget--
		o.markFailed(ctx, o.documentFor(file, existing, t), err)
		return fileOutcome{}, err
	}

	// 2. FINGERPRINT
	hash := Fingerprint(text)

	// 3. CHANGE DETECTION
	if ShouldSkip(existing, hash) {
		if err := o.touch(ctx, t, existing); err != nil {
			return fileOutcome{}, err
		}
		logger.Debug("Unchanged: %s", file.Name)
		return fileOutcome{skipped: true}, nil
	}

	if t.budget == 0 {
		return fileOutcome{}, errBudgetSpent
	}
	t.budget--
	return o.indexFile(ctx, t, file, existing, text, hash)
}

// touch stamps an unchanged document with the current job.
func (o *SyncOrchestrator) touch(ctx context.Context, t *tick, existing *domain.Document) error {
	doc := *existing
	doc.LastJobID = t.jobID
	doc.UpdatedAt = o.now()
	if err := o.docs.UpsertDocument(ctx, &doc); err != nil {
		return domain.NewStoreWriteError("touch document", err)
	}
	return nil
}

// indexFile upserts the document as processing, keeping the old hash until
// the new chunks are stored, then indexes it.
func (o *SyncOrchestrator) indexFile(
	ctx context.Context,
	t *tick,
	file domain.SourceFile,
	existing *domain.Document,
	text, hash string,
) (fileOutcome, error) {
	doc := o.documentFor(file, existing, t)
	doc.IndexingStatus = domain.IndexingProcessing
	if err := o.docs.UpsertDocument(ctx, doc); err != nil {
		return fileOutcome{}, domain.NewStoreWriteError("upsert document", err)
	}

	count, err := o.indexDocument(ctx, t, doc, file, text, hash)
	if err != nil {
		o.markFailed(ctx, doc, err)
		return fileOutcome{}, err
	}
	return fileOutcome{chunks: count}, nil
}

// fetchText downloads or exports a file and normalises it to clean text.
func (o *SyncOrchestrator) fetchText(ctx context.Context, file domain.SourceFile) (string, error) {
	var (
		data []byte
		err  error
	)
	mime := file.MIMEType

	if exportMIME, ok := o.source.IsExportable(file.MIMEType); ok {
		data, err = o.source.ExportDocument(ctx, file.ID, exportMIME)
		if err != nil {
			return "", fmt.Errorf("%w: export: %w", domain.ErrExtraction, err)
		}
		mime = exportMIME
	} else {
		data, err = o.source.DownloadFile(ctx, file.ID)
		if err != nil {
			return "", fmt.Errorf("%w: download: %w", domain.ErrExtraction, err)
		}
	}

	text, err := o.registry.Normalise(ctx, &domain.RawContent{
		FileID:   file.ID,
		Name:     file.Name,
		MIMEType: mime,
		Content:  data,
	})
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", domain.NewExtractionError("No text content extracted")
	}
	return text, nil
}

// indexDocument chunks, embeds and replaces the chunks of doc, then marks it indexed.
func (o *SyncOrchestrator) indexDocument(
	ctx context.Context,
	t *tick,
	doc *domain.Document,
	file domain.SourceFile,
	text, hash string,
) (int, error) {
	drafts, err := t.chunker.Chunk(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(drafts) == 0 {
		return 0, domain.ErrNoChunksGenerated
	}

	pairs := EmbeddableChunks(drafts)
	if len(pairs) == 0 {
		return 0, fmt.Errorf("%w: all chunks empty after trimming", domain.ErrNoChunksGenerated)
	}

	embedded, err := o.embedder.EmbedPairs(ctx, pairs)
	if err != nil {
		return 0, err
	}

	tokens := make(map[int]int, len(drafts))
	for _, d := range drafts {
		tokens[d.Index] = d.TokenCount
	}

	chunks := make([]domain.Chunk, len(embedded))
	for i, e := range embedded {
		chunks[i] = domain.Chunk{
			ID:         o.newID(),
			DocumentID: doc.ID,
			CorpusID:   doc.CorpusID,
			Index:      i,
			Content:    e.Text,
			TokenCount: tokens[e.Index],
			Embedding:  e.Embedding,
			Metadata: domain.ChunkMetadata{
				FileName: file.Name,
				Path:     file.Path,
				MIMEType: file.MIMEType,
			},
		}
	}

	if err := o.chunks.DeleteChunksByDocument(ctx, doc.ID); err != nil {
		return 0, domain.NewStoreWriteError("delete chunks", err)
	}
	doc.ChunkCount = 0

	limit := o.chunks.MaxRowsPerInsert()
	if limit <= 0 {
		limit = DefaultMaxRowsPerInsert
	}
	for start := 0; start < len(chunks); start += limit {
		end := min(start+limit, len(chunks))
		if err := o.chunks.InsertChunks(ctx, chunks[start:end]); err != nil {
			return 0, domain.NewStoreWriteError("insert chunks", err)
		}
	}

	doc.ContentHash = hash
	doc.IndexingStatus = domain.IndexingIndexed
	doc.ChunkCount = len(chunks)
	doc.ErrorMessage = ""
	doc.UpdatedAt = o.now()
	if err := o.docs.UpsertDocument(ctx, doc); err != nil {
		return 0, domain.NewStoreWriteError("mark indexed", err)
	}

	logger.Debug("Indexed %s: %d chunks", file.Name, len(chunks))
	return len(chunks), nil
}

// documentFor builds the document row for file, carrying over identity,
// hash and chunk count from an existing row.
func (o *SyncOrchestrator) documentFor(file domain.SourceFile, existing *domain.Document, t *tick) *domain.Document {
	now := o.now()
	doc := &domain.Document{
		ID:        o.newID(),
		CorpusID:  t.corpus.ID,
		CreatedAt: now,
	}
	if existing != nil {
		doc.ID = existing.ID
		doc.ContentHash = existing.ContentHash
		doc.ChunkCount = existing.ChunkCount
		doc.CreatedAt = existing.CreatedAt
	}
	doc.SourceFileID = file.ID
	doc.Name = file.Name
	doc.MIMEType = file.MIMEType
	doc.Path = file.Path
	doc.Size = file.Size
	doc.SourceModifiedAt = file.ModifiedTime
	doc.LastJobID = t.jobID
	doc.UpdatedAt = now
	return doc
}

// markFailed records a per-file failure on the document. Best-effort.
func (o *SyncOrchestrator) markFailed(ctx context.Context, doc *domain.Document, cause error) {
	doc.IndexingStatus = domain.IndexingError
	doc.ErrorMessage = cause.Error()
	doc.UpdatedAt = o.now()
	if err := o.docs.UpsertDocument(context.WithoutCancel(ctx), doc); err != nil {
		logger.Warn("Failed to mark document %s as error: %v", doc.Name, err)
	}
}
