package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// SyncOrchestrator runs one batch-bounded sync tick for a corpus.
type SyncOrchestrator interface {
	// RunSync processes up to BatchSize files of the corpus folder and
	// persists progress. Callers re-invoke with the same JobID while
	// MoreRemaining is true.
	RunSync(ctx context.Context, req SyncRequest) (*SyncResult, error)
}

// SyncRequest identifies one tick of a logical sync.
type SyncRequest struct {
	// CorpusID is the corpus to sync.
	CorpusID string

	// FolderID overrides the corpus source folder when set.
	FolderID string

	// JobID is the ingestion job this tick belongs to.
	JobID string

	// BatchSize bounds the files downloaded in this tick. Zero means default.
	BatchSize int
}

// SyncResult reports the outcome of a tick.
type SyncResult struct {
	JobID         string
	Status        domain.JobStatus
	CorpusStatus  domain.SyncStatus
	MoreRemaining bool
	Stats         domain.SyncStats
}
