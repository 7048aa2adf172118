package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// ==================== Corpus Store ====================

const corpusColumns = `id, name, source_folder_id, sync_status, active_job_id,
	last_sync_at, last_sync_stats, last_error, created_at, updated_at`

// CreateCorpus stores a new corpus.
func (s *Store) CreateCorpus(ctx context.Context, corpus *domain.Corpus) error {
	if corpus == nil || corpus.ID == "" {
		return domain.ErrInvalidInput
	}
	stats, err := marshalJSON(corpus.LastSyncStats)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO corpora (`+corpusColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, corpus.ID, corpus.Name, corpus.SourceFolderID, string(corpus.SyncStatus), corpus.ActiveJobID,
		nullTime(corpus.LastSyncAt), stats, corpus.LastError, corpus.CreatedAt, corpus.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("corpus %s: %w", corpus.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting corpus: %w", err)
	}
	return nil
}

// GetCorpus retrieves a corpus by ID.
func (s *Store) GetCorpus(ctx context.Context, id string) (*domain.Corpus, error) {
	return scanCorpus(s.db.QueryRowContext(ctx, `SELECT `+corpusColumns+` FROM corpora WHERE id = $1`, id))
}

// ListCorpora returns every corpus ordered by name.
func (s *Store) ListCorpora(ctx context.Context) ([]domain.Corpus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+corpusColumns+` FROM corpora ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying corpora: %w", err)
	}
	defer rows.Close()

	var corpora []domain.Corpus //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanCorpus(rows)
		if err != nil {
			return nil, err
		}
		corpora = append(corpora, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpora: %w", err)
	}
	return corpora, nil
}

// UpdateCorpus locks the row, applies the update and saves it.
func (s *Store) UpdateCorpus(ctx context.Context, id string, update domain.CorpusUpdate) (*domain.Corpus, error) {
	var out *domain.Corpus
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := scanCorpus(tx.QueryRowContext(ctx,
			`SELECT `+corpusColumns+` FROM corpora WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := c.Apply(update); err != nil {
			return err
		}
		stats, err := marshalJSON(c.LastSyncStats)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE corpora SET sync_status = $1, active_job_id = $2, last_sync_at = $3,
				last_sync_stats = $4, last_error = $5, updated_at = $6
			WHERE id = $7
		`, string(c.SyncStatus), c.ActiveJobID, nullTime(c.LastSyncAt), stats, c.LastError, c.UpdatedAt, c.ID)
		if err != nil {
			return fmt.Errorf("updating corpus: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanCorpus(row scanner) (*domain.Corpus, error) {
	var c domain.Corpus
	var status string
	var stats []byte
	var lastSync sql.NullTime
	if err := row.Scan(&c.ID, &c.Name, &c.SourceFolderID, &status, &c.ActiveJobID,
		&lastSync, &stats, &c.LastError, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	c.SyncStatus = domain.SyncStatus(status)
	c.LastSyncAt = timePtr(lastSync)
	if err := unmarshalJSON(stats, &c.LastSyncStats); err != nil {
		return nil, err
	}
	return &c, nil
}

// ==================== Job Store ====================

const jobColumns = `id, corpus_id, status, progress_stage, progress_current, progress_total,
	stats, error_message, started_at, completed_at, created_at, updated_at`

// CreateJob stores a new job.
func (s *Store) CreateJob(ctx context.Context, job *domain.IngestionJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	stats, err := marshalJSON(job.Stats)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ingestion_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, job.ID, job.CorpusID, string(job.Status), job.Progress.Stage, job.Progress.Current, job.Progress.Total,
		stats, job.ErrorMessage, nullTime(job.StartedAt), nullTime(job.CompletedAt), job.CreatedAt, job.UpdatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
		case codeForeignKeyViolation:
			return fmt.Errorf("corpus %s: %w", job.CorpusID, domain.ErrNotFound)
		}
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.IngestionJob, error) {
	return scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM ingestion_jobs WHERE id = $1`, id))
}

// ListJobs returns jobs for a corpus, newest first.
func (s *Store) ListJobs(ctx context.Context, corpusID string) ([]domain.IngestionJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM ingestion_jobs
		WHERE corpus_id = $1 ORDER BY created_at DESC, id DESC
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestionJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJob locks the row, applies the update and saves it.
func (s *Store) UpdateJob(ctx context.Context, id string, update domain.JobUpdate) (*domain.IngestionJob, error) {
	var out *domain.IngestionJob
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		j, err := scanJob(tx.QueryRowContext(ctx,
			`SELECT `+jobColumns+` FROM ingestion_jobs WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := j.Apply(update); err != nil {
			return err
		}
		stats, err := marshalJSON(j.Stats)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE ingestion_jobs SET status = $1, progress_stage = $2, progress_current = $3,
				progress_total = $4, stats = $5, error_message = $6, started_at = $7,
				completed_at = $8, updated_at = $9
			WHERE id = $10
		`, string(j.Status), j.Progress.Stage, j.Progress.Current, j.Progress.Total,
			stats, j.ErrorMessage, nullTime(j.StartedAt), nullTime(j.CompletedAt), j.UpdatedAt, j.ID)
		if err != nil {
			return fmt.Errorf("updating job: %w", err)
		}
		out = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanJob(row scanner) (*domain.IngestionJob, error) {
	var j domain.IngestionJob
	var status string
	var stats []byte
	var started, completed sql.NullTime
	if err := row.Scan(&j.ID, &j.CorpusID, &status, &j.Progress.Stage, &j.Progress.Current, &j.Progress.Total,
		&stats, &j.ErrorMessage, &started, &completed, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	j.Status = domain.JobStatus(status)
	j.StartedAt = timePtr(started)
	j.CompletedAt = timePtr(completed)
	if err := unmarshalJSON(stats, &j.Stats); err != nil {
		return nil, err
	}
	return &j, nil
}

// ==================== Profile Store ====================

// SaveProfile stores or replaces a profile.
func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidInput
	}
	guidelines, err := marshalJSON(p.Guidelines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, brand_voice, audience, description, guidelines, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand_voice = EXCLUDED.brand_voice,
			audience = EXCLUDED.audience,
			description = EXCLUDED.description,
			guidelines = EXCLUDED.guidelines,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.BrandVoice, p.Audience, p.Description, guidelines, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	var guidelines []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, brand_voice, audience, description, guidelines, created_at, updated_at
		FROM profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.BrandVoice, &p.Audience, &p.Description, &guidelines, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	if err := unmarshalJSON(guidelines, &p.Guidelines); err != nil {
		return nil, err
	}
	return &p, nil
}
