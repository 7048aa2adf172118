package domain

// Retrieval defaults.
const (
	DefaultMatchCount     = 5
	DefaultMatchThreshold = 0.5
)

// RetrievalQuery configures a similarity search over one corpus.
type RetrievalQuery struct {
	// Query is the natural-language text to embed.
	Query string

	// CorpusID scopes the search.
	CorpusID string

	// MatchCount is the maximum number of chunks. Zero means DefaultMatchCount.
	MatchCount int

	// MatchThreshold is the minimum similarity in [0,1]. Nil means
	// DefaultMatchThreshold; an explicit zero accepts every chunk.
	MatchThreshold *float64
}

// Threshold returns a MatchThreshold value for v.
func Threshold(v float64) *float64 {
	return &v
}

// WithDefaults returns the query with unset values replaced by defaults.
func (q RetrievalQuery) WithDefaults() RetrievalQuery {
	if q.MatchCount <= 0 {
		q.MatchCount = DefaultMatchCount
	}
	if q.MatchThreshold == nil {
		q.MatchThreshold = Threshold(DefaultMatchThreshold)
	}
	return q
}

// Threshold returns the effective minimum similarity.
func (q RetrievalQuery) Threshold() float64 {
	if q.MatchThreshold == nil {
		return DefaultMatchThreshold
	}
	return *q.MatchThreshold
}

// ScoredChunk is a chunk returned by similarity search.
type ScoredChunk struct {
	// Chunk is the matched chunk, embedding omitted.
	Chunk Chunk

	// DocumentName is the source file name of the owning document.
	DocumentName string

	// Similarity is 1 - cosine distance, higher is closer.
	Similarity float64
}

// RetrievalResult is the outcome of a retrieval call.
// Failures are reported in-band rather than as errors.
type RetrievalResult struct {
	Chunks  []ScoredChunk
	Success bool
	Error   string
}
