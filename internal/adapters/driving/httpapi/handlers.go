package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	corpora, err := s.ports.Corpus.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]corpusResponse, len(corpora))
	for i := range corpora {
		out[i] = toCorpusResponse(&corpora[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCorpus(w http.ResponseWriter, r *http.Request) {
	var req createCorpusRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	corpus, err := s.ports.Corpus.Create(r.Context(), req.Name, req.SourceFolderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCorpusResponse(corpus))
}

func (s *Server) handleGetCorpus(w http.ResponseWriter, r *http.Request) {
	corpus, err := s.ports.Corpus.Get(r.Context(), chi.URLParam(r, "corpusID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorpusResponse(corpus))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corpusID := chi.URLParam(r, "corpusID")

	if _, err := s.ports.Corpus.Get(ctx, corpusID); err != nil {
		writeError(w, err)
		return
	}
	docs, err := s.ports.Corpus.ListDocuments(ctx, corpusID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSync runs one tick. Without job_id a new job is started; callers
// re-post with the returned job_id while more_remaining is true.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corpusID := chi.URLParam(r, "corpusID")

	var req syncRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	if req.BatchSize < 0 {
		writeError(w, fmt.Errorf("%w: batch_size must not be negative", domain.ErrInvalidInput))
		return
	}

	unlock, ok := s.locks.TryLock(corpusID)
	if !ok {
		writeError(w, errCorpusBusy)
		return
	}
	defer unlock()

	jobID := req.JobID
	if jobID == "" {
		job, err := s.ports.Corpus.StartJob(ctx, corpusID)
		if err != nil {
			writeError(w, err)
			return
		}
		jobID = job.ID
	}

	result, err := s.ports.Sync.RunSync(ctx, driving.SyncRequest{
		CorpusID:  corpusID,
		FolderID:  req.FolderID,
		JobID:     jobID,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		logger.Warn("Sync tick for corpus %s job %s failed: %v", corpusID, jobID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSyncResponse(result))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.ports.Corpus.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// handleRetrieve reports provider and store failures in-band with
// success=false; only bad input and unknown profiles are HTTP errors.
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if t := req.MatchThreshold; t != nil && (*t < 0 || *t > 1) {
		writeError(w, fmt.Errorf("%w: match_threshold must be between 0 and 1", domain.ErrInvalidInput))
		return
	}

	assembled, err := s.ports.Retrieval.AssembleContext(r.Context(), driving.ContextRequest{
		Query: domain.RetrievalQuery{
			Query:          req.Query,
			CorpusID:       chi.URLParam(r, "corpusID"),
			MatchCount:     req.MatchCount,
			MatchThreshold: req.MatchThreshold,
		},
		ProfileID: req.ProfileID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRetrieveResponse(assembled))
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	if s.ports.Profile == nil {
		http.NotFound(w, r)
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	profile, err := s.ports.Profile.Create(r.Context(), &domain.Profile{
		Name:        req.Name,
		BrandVoice:  req.BrandVoice,
		Audience:    req.Audience,
		Description: req.Description,
		Guidelines:  req.Guidelines,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.ports.Profile == nil {
		http.NotFound(w, r)
		return
	}

	profile, err := s.ports.Profile.Get(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// decodeJSON reads the request body into v. An empty body is accepted
// when optional is true.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
