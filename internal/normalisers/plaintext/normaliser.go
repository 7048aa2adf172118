package plaintext

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrBinaryContent indicates the bytes do not look like text.
var ErrBinaryContent = errors.New("content is not text")

// sniffLen is how many leading bytes are checked for NUL bytes.
const sniffLen = 8000

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/*",
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"application/json",
		"application/xml",
		"application/x-yaml",
		"application/toml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the content as text. Invalid UTF-8 sequences are
// dropped; content with NUL bytes is rejected as binary.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	head := raw.Content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return "", ErrBinaryContent
	}

	if utf8.Valid(raw.Content) {
		return string(raw.Content), nil
	}
	return string(bytes.ToValidUTF8(raw.Content, nil)), nil
}
