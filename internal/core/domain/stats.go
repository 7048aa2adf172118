package domain

// SyncStats summarises a logical sync for operators.
// The same value is written to the job and to the corpus.
type SyncStats struct {
	// FilesProcessed counts files indexed or confirmed unchanged.
	FilesProcessed int `json:"files_processed"`

	// FilesFailed counts files whose pipeline failed.
	FilesFailed int `json:"files_failed"`

	// FilesSkipped counts processed files that were unchanged and already indexed.
	FilesSkipped int `json:"files_skipped"`

	// TotalFiles is the number of supported files in the listing.
	TotalFiles int `json:"total_files"`

	// TotalChunks counts chunks added by the most recent tick only.
	TotalChunks int `json:"total_chunks"`

	// ChunksIndexed counts chunks written across every tick of the sync.
	ChunksIndexed int `json:"chunks_indexed"`

	// Errors holds "<fileName>: <message>" entries.
	Errors []string `json:"errors"`

	// Message is an informational note, e.g. for an empty folder.
	Message string `json:"message,omitempty"`
}

// Clone returns a deep copy.
func (s SyncStats) Clone() SyncStats {
	out := s
	if s.Errors != nil {
		out.Errors = append([]string(nil), s.Errors...)
	}
	return out
}

// AddError records a per-file failure.
func (s *SyncStats) AddError(msg string) {
	s.FilesFailed++
	s.Errors = append(s.Errors, msg)
}
