package domain

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

// Job states. Transitions are monotonic:
// pending -> running -> {completed | failed}.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// String returns the string representation.
func (s JobStatus) String() string {
	return string(s)
}

// Progress stages reported by the orchestrator.
const (
	StageListing    = "listing"
	StageProcessing = "processing"
	StageFinalizing = "finalizing"
)

// Progress tracks position within the current stage.
type Progress struct {
	Stage   string `json:"stage"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// IngestionJob is one sync invocation chain for a corpus.
type IngestionJob struct {
	ID           string
	CorpusID     string
	Status       JobStatus
	Progress     Progress
	Stats        SyncStats
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIngestionJob creates a pending job for a corpus.
func NewIngestionJob(id, corpusID string, now time.Time) *IngestionJob {
	return &IngestionJob{
		ID:        id,
		CorpusID:  corpusID,
		Status:    JobStatusPending,
		Stats:     SyncStats{Errors: []string{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobUpdate is a status or progress change for an IngestionJob.
// Each variant carries only the fields legal for its transition.
type JobUpdate interface {
	applyTo(job *IngestionJob) error
}

// JobStarted moves a job into running. Re-entering running from running is
// allowed (continuation ticks); StartedAt is recorded only once.
type JobStarted struct {
	At time.Time
}

// JobProgressed records stage progress on a running job.
type JobProgressed struct {
	Progress Progress
}

// JobCheckpointed persists accumulated stats at the end of a tick that left work.
type JobCheckpointed struct {
	Stats SyncStats
	At    time.Time
}

// JobCompleted marks a job completed.
type JobCompleted struct {
	Stats SyncStats
	At    time.Time
}

// JobFailed marks a job failed.
type JobFailed struct {
	Message string
	Stats   SyncStats
	At      time.Time
}

// Apply validates and applies an update.
func (j *IngestionJob) Apply(u JobUpdate) error {
	if u == nil {
		return fmt.Errorf("%w: nil job update", ErrInvalidInput)
	}
	return u.applyTo(j)
}

func (u JobStarted) applyTo(j *IngestionJob) error {
	switch j.Status {
	case JobStatusPending:
		at := u.At
		j.StartedAt = &at
	case JobStatusRunning:
		if j.StartedAt == nil {
			at := u.At
			j.StartedAt = &at
		}
	default:
		return transitionError("job", j.Status.String(), JobStatusRunning.String())
	}
	j.Status = JobStatusRunning
	j.UpdatedAt = u.At
	return nil
}

func (u JobProgressed) applyTo(j *IngestionJob) error {
	if j.Status != JobStatusRunning {
		return transitionError("job progress", j.Status.String(), JobStatusRunning.String())
	}
	p := u.Progress
	if p.Current < 0 || p.Total < 0 || p.Current > p.Total {
		return fmt.Errorf("%w: progress %d/%d for stage %q", ErrInvalidInput, p.Current, p.Total, p.Stage)
	}
	j.Progress = p
	return nil
}

func (u JobCheckpointed) applyTo(j *IngestionJob) error {
	if j.Status != JobStatusRunning {
		return transitionError("job checkpoint", j.Status.String(), JobStatusRunning.String())
	}
	j.Stats = u.Stats.Clone()
	j.UpdatedAt = u.At
	return nil
}

func (u JobCompleted) applyTo(j *IngestionJob) error {
	if j.Status != JobStatusRunning {
		return transitionError("job", j.Status.String(), JobStatusCompleted.String())
	}
	at := u.At
	j.Status = JobStatusCompleted
	j.Stats = u.Stats.Clone()
	j.CompletedAt = &at
	j.UpdatedAt = at
	return nil
}

func (u JobFailed) applyTo(j *IngestionJob) error {
	if j.Status.IsTerminal() {
		return transitionError("job", j.Status.String(), JobStatusFailed.String())
	}
	at := u.At
	if j.StartedAt == nil {
		j.StartedAt = &at
	}
	j.Status = JobStatusFailed
	j.ErrorMessage = u.Message
	j.Stats = u.Stats.Clone()
	j.CompletedAt = &at
	j.UpdatedAt = at
	return nil
}

func transitionError(entity, from, to string) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, from, to)
}
