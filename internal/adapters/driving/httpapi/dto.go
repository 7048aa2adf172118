package httpapi

import (
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

type createCorpusRequest struct {
	Name           string `json:"name"`
	SourceFolderID string `json:"source_folder_id"`
}

type corpusResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	SourceFolderID string           `json:"source_folder_id"`
	SyncStatus     string           `json:"sync_status"`
	ActiveJobID    string           `json:"active_job_id,omitempty"`
	LastSyncAt     *time.Time       `json:"last_sync_at,omitempty"`
	LastSyncStats  domain.SyncStats `json:"last_sync_stats"`
	LastError      string           `json:"last_error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func toCorpusResponse(c *domain.Corpus) corpusResponse {
	return corpusResponse{
		ID:             c.ID,
		Name:           c.Name,
		SourceFolderID: c.SourceFolderID,
		SyncStatus:     c.SyncStatus.String(),
		ActiveJobID:    c.ActiveJobID,
		LastSyncAt:     c.LastSyncAt,
		LastSyncStats:  withErrors(c.LastSyncStats),
		LastError:      c.LastError,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type documentResponse struct {
	ID               string    `json:"id"`
	SourceFileID     string    `json:"source_file_id"`
	Name             string    `json:"name"`
	Path             string    `json:"path"`
	MIMEType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	SourceModifiedAt time.Time `json:"source_modified_at"`
	ContentHash      string    `json:"content_hash,omitempty"`
	IndexingStatus   string    `json:"indexing_status"`
	ChunkCount       int       `json:"chunk_count"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

func toDocumentResponse(d *domain.Document) documentResponse {
	return documentResponse{
		ID:               d.ID,
		SourceFileID:     d.SourceFileID,
		Name:             d.Name,
		Path:             d.Path,
		MIMEType:         d.MIMEType,
		Size:             d.Size,
		SourceModifiedAt: d.SourceModifiedAt,
		ContentHash:      d.ContentHash,
		IndexingStatus:   d.IndexingStatus.String(),
		ChunkCount:       d.ChunkCount,
		ErrorMessage:     d.ErrorMessage,
	}
}

type jobResponse struct {
	ID           string           `json:"id"`
	CorpusID     string           `json:"corpus_id"`
	Status       string           `json:"status"`
	Progress     domain.Progress  `json:"progress"`
	Stats        domain.SyncStats `json:"stats"`
	ErrorMessage string           `json:"error_message,omitempty"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func toJobResponse(j *domain.IngestionJob) jobResponse {
	return jobResponse{
		ID:           j.ID,
		CorpusID:     j.CorpusID,
		Status:       j.Status.String(),
		Progress:     j.Progress,
		Stats:        withErrors(j.Stats),
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		CreatedAt:    j.CreatedAt,
	}
}

type syncRequest struct {
	FolderID  string `json:"folder_id"`
	JobID     string `json:"job_id"`
	BatchSize int    `json:"batch_size"`
}

type syncResponse struct {
	JobID         string           `json:"job_id"`
	Status        string           `json:"status"`
	CorpusStatus  string           `json:"corpus_status"`
	MoreRemaining bool             `json:"more_remaining"`
	Stats         domain.SyncStats `json:"stats"`
}

func toSyncResponse(r *driving.SyncResult) syncResponse {
	return syncResponse{
		JobID:         r.JobID,
		Status:        r.Status.String(),
		CorpusStatus:  r.CorpusStatus.String(),
		MoreRemaining: r.MoreRemaining,
		Stats:         withErrors(r.Stats),
	}
}

type retrieveRequest struct {
	Query          string   `json:"query"`
	MatchCount     int      `json:"match_count"`
	MatchThreshold *float64 `json:"match_threshold"`
	ProfileID      string   `json:"profile_id"`
}

type chunkResponse struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Path         string  `json:"path,omitempty"`
	MIMEType     string  `json:"mime_type,omitempty"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	TokenCount   int     `json:"token_count"`
	Similarity   float64 `json:"similarity"`
}

type retrieveResponse struct {
	Chunks         []chunkResponse `json:"chunks"`
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	Context        string          `json:"context"`
	ProfileContext string          `json:"profile_context,omitempty"`
}

func toRetrieveResponse(a *driving.AssembledContext) retrieveResponse {
	chunks := make([]chunkResponse, len(a.Result.Chunks))
	for i, hit := range a.Result.Chunks {
		name := hit.DocumentName
		if name == "" {
			name = hit.Chunk.Metadata.FileName
		}
		chunks[i] = chunkResponse{
			ID:           hit.Chunk.ID,
			DocumentID:   hit.Chunk.DocumentID,
			DocumentName: name,
			Path:         hit.Chunk.Metadata.Path,
			MIMEType:     hit.Chunk.Metadata.MIMEType,
			ChunkIndex:   hit.Chunk.Index,
			Content:      hit.Chunk.Content,
			TokenCount:   hit.Chunk.TokenCount,
			Similarity:   hit.Similarity,
		}
	}
	return retrieveResponse{
		Chunks:         chunks,
		Success:        a.Result.Success,
		Error:          a.Result.Error,
		Context:        a.Context,
		ProfileContext: a.ProfileContext,
	}
}

type profileRequest struct {
	Name        string   `json:"name"`
	BrandVoice  string   `json:"brand_voice"`
	Audience    string   `json:"audience"`
	Description string   `json:"description"`
	Guidelines  []string `json:"guidelines"`
}

type profileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BrandVoice  string    `json:"brand_voice,omitempty"`
	Audience    string    `json:"audience,omitempty"`
	Description string    `json:"description,omitempty"`
	Guidelines  []string  `json:"guidelines,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		Name:        p.Name,
		BrandVoice:  p.BrandVoice,
		Audience:    p.Audience,
		Description: p.Description,
		Guidelines:  p.Guidelines,
		CreatedAt:   p.CreatedAt,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// withErrors keeps "errors" a JSON array rather than null.
func withErrors(s domain.SyncStats) domain.SyncStats {
	out := s.Clone()
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return out
}
