package services

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Fingerprint returns the hex SHA-256 of normalised text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ShouldSkip reports whether a file can be skipped without reprocessing.
// A document is skipped only when it exists, its stored hash equals hash and
// its last run reached indexed. Any other status is retried even with an
// equal hash.
func ShouldSkip(existing *domain.Document, hash string) bool {
	if existing == nil {
		return false
	}
	return existing.ContentHash == hash && existing.IndexingStatus == domain.IndexingIndexed
}
