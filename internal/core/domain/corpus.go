package domain

import "time"

// SyncStatus is the corpus-level sync state.
type SyncStatus string

// Corpus sync states.
const (
	SyncIdle      SyncStatus = "idle"
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncError     SyncStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncIdle, SyncRunning, SyncCompleted, SyncError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SyncStatus) String() string {
	return string(s)
}

// Corpus is a named collection of documents tied to one source folder.
// It is created by an external setup flow and mutated by the orchestrator.
type Corpus struct {
	ID             string
	Name           string
	SourceFolderID string
	SyncStatus     SyncStatus
	ActiveJobID    string
	LastSyncAt     *time.Time
	LastSyncStats  SyncStats
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CorpusUpdate is a sync state change for a Corpus.
type CorpusUpdate interface {
	applyTo(c *Corpus) error
}

// CorpusSyncStarted marks a tick in flight for a job.
type CorpusSyncStarted struct {
	JobID string
	At    time.Time
}

// CorpusSyncCheckpointed records a finished tick that left work; the corpus stays running.
type CorpusSyncCheckpointed struct {
	Stats SyncStats
	At    time.Time
}

// CorpusSyncCompleted marks every supported file as attempted.
type CorpusSyncCompleted struct {
	Stats SyncStats
	At    time.Time
}

// CorpusSyncFailed records a fatal tick failure.
type CorpusSyncFailed struct {
	Message string
	Stats   SyncStats
	At      time.Time
}

// Apply validates and applies an update.
func (c *Corpus) Apply(u CorpusUpdate) error {
	if u == nil {
		return transitionError("corpus", c.SyncStatus.String(), "<nil>")
	}
	return u.applyTo(c)
}

func (u CorpusSyncStarted) applyTo(c *Corpus) error {
	c.SyncStatus = SyncRunning
	c.ActiveJobID = u.JobID
	c.LastError = ""
	c.UpdatedAt = u.At
	return nil
}

func (u CorpusSyncCheckpointed) applyTo(c *Corpus) error {
	if c.SyncStatus != SyncRunning {
		return transitionError("corpus", c.SyncStatus.String(), SyncRunning.String())
	}
	at := u.At
	c.LastSyncAt = &at
	c.LastSyncStats = u.Stats.Clone()
	c.UpdatedAt = at
	return nil
}

func (u CorpusSyncCompleted) applyTo(c *Corpus) error {
	if c.SyncStatus != SyncRunning {
		return transitionError("corpus", c.SyncStatus.String(), SyncCompleted.String())
	}
	at := u.At
	c.SyncStatus = SyncCompleted
	c.LastSyncAt = &at
	c.LastSyncStats = u.Stats.Clone()
	c.UpdatedAt = at
	return nil
}

func (u CorpusSyncFailed) applyTo(c *Corpus) error {
	at := u.At
	c.SyncStatus = SyncError
	c.LastError = u.Message
	c.LastSyncAt = &at
	c.LastSyncStats = u.Stats.Clone()
	c.UpdatedAt = at
	return nil
}
