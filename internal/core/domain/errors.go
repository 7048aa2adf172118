package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown MIME type, provider or driver.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTransition indicates a status update not legal for the current state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Ingestion Errors.

	// ErrExtraction indicates a source file could not be read or produced no text.
	ErrExtraction = errors.New("extraction failed")

	// ErrNoChunksGenerated indicates chunking left nothing to embed.
	ErrNoChunksGenerated = errors.New("no chunks generated")

	// ErrEmbeddingProvider indicates the embedding provider failed or misbehaved.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrStoreWrite indicates a write to the corpus store failed.
	ErrStoreWrite = errors.New("store write failed")

	// ErrListing indicates the source folder could not be listed.
	// It is fatal to a sync tick.
	ErrListing = errors.New("listing failed")
)

// NewExtractionError returns an error wrapping ErrExtraction.
func NewExtractionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExtraction, fmt.Sprintf(format, args...))
}

// NewEmbeddingProviderError wraps a provider failure.
func NewEmbeddingProviderError(err error) error {
	if errors.Is(err, ErrEmbeddingProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
}

// NewStoreWriteError wraps a persistence failure with the operation name.
func NewStoreWriteError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreWrite, op, err)
}

// NewListingError wraps a folder listing failure.
func NewListingError(folderID string, err error) error {
	return fmt.Errorf("%w: folder %s: %w", ErrListing, folderID, err)
}

// FileProcessingError scopes any per-file failure to the file it happened on.
type FileProcessingError struct {
	FileName string
	Err      error
}

// Error implements the error interface.
func (e *FileProcessingError) Error() string {
	return e.FileName + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FileProcessingError) Unwrap() error {
	return e.Err
}

// Message is the operator-facing form stored in SyncStats.Errors.
func (e *FileProcessingError) Message() string {
	return fmt.Sprintf("%s: %s", e.FileName, userMessage(e.Err))
}

// userMessage strips sentinel prefixes that add nothing for an operator,
// e.g. "extraction failed: No text content extracted" -> "No text content extracted".
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrExtraction, ErrNoChunksGenerated} {
		prefix := sentinel.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
