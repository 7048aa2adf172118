package domain

import (
	"strings"
	"time"
)

// IndexingStatus is the processing state of a single document.
type IndexingStatus string

// Document indexing states.
const (
	// IndexingProcessing means a pipeline run has started but not finished.
	IndexingProcessing IndexingStatus = "processing"

	// IndexingIndexed means every chunk of the current content is persisted.
	IndexingIndexed IndexingStatus = "indexed"

	// IndexingError means the last attempt failed at some step.
	IndexingError IndexingStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s IndexingStatus) IsValid() bool {
	switch s {
	case IndexingProcessing, IndexingIndexed, IndexingError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s IndexingStatus) String() string {
	return string(s)
}

// Document is one source file within a corpus.
// The natural key is (CorpusID, SourceFileID).
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// CorpusID links to the owning Corpus.
	CorpusID string

	// SourceFileID is the file identifier in the external file store.
	SourceFileID string

	// Name is the file name as listed by the source.
	Name string

	// MIMEType is the source MIME type.
	MIMEType string

	// Path is the display path within the source folder.
	Path string

	// Size is the source file size in bytes.
	Size int64

	// SourceModifiedAt is the modification time reported by the source.
	SourceModifiedAt time.Time

	// ContentHash is the fingerprint of the normalised extracted text.
	// It is only replaced once a reprocessing run reaches IndexingIndexed.
	ContentHash string

	// IndexingStatus is the state of the last processing attempt.
	IndexingStatus IndexingStatus

	// ChunkCount is the number of persisted chunks.
	ChunkCount int

	// LastJobID is the ingestion job that last attempted this document.
	LastJobID string

	// ErrorMessage describes the last failure, if any.
	ErrorMessage string

	// CreatedAt is when the document was first seen.
	CreatedAt time.Time

	// UpdatedAt is when the document row was last written.
	UpdatedAt time.Time
}

// IsIndexed reports whether the document finished its last indexing run.
func (d *Document) IsIndexed() bool {
	return d.IndexingStatus == IndexingIndexed
}

// ChunkMetadata is denormalised file information stored alongside each chunk
// so retrieval can attribute a hit without joining documents.
type ChunkMetadata struct {
	FileName string `json:"file_name"`
	Path     string `json:"path,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

// Chunk is one embedded text segment of a document.
// Chunks are never updated in place; reprocessing replaces the whole set.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// CorpusID is denormalised from the document for corpus-scoped search.
	CorpusID string

	// Index is the 0-based position within the document.
	Index int

	// Content is the chunk text, non-empty after trimming.
	Content string

	// TokenCount is the size of Content in tokenizer units.
	TokenCount int

	// Embedding is the vector representation of Content.
	Embedding []float32

	// Metadata carries display information about the source file.
	Metadata ChunkMetadata
}

// ChunkDraft is a chunker output before embedding.
type ChunkDraft struct {
	Index      int
	Content    string
	TokenCount int
}

// IsBlank reports whether the draft has no content after trimming.
func (c ChunkDraft) IsBlank() bool {
	return strings.TrimSpace(c.Content) == ""
}
