package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise returns the document text with markdown syntax removed.
// Code block contents, link text and image alt text are kept.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return stripMarkdown(string(raw.Content)), nil
}

// Pre-compiled regular expressions, applied in declaration order.
var (
	codeFence      = regexp.MustCompile("(?m)^[ \t]*(?:```|~~~)[^\n]*\n?")
	horizontalRule = regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`)
	tableDivider   = regexp.MustCompile(`(?m)^[ \t]*\|?(?:[ \t]*:?-{3,}:?[ \t]*\|)+[ \t]*(?::?-{3,}:?)?[ \t]*$`)
	listMarker     = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	numberedMarker = regexp.MustCompile(`(?m)^([ \t]*)\d+[.)][ \t]+`)
	headingMarker  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	blockquote     = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	image          = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link           = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	inlineCode     = regexp.MustCompile("`([^`\n]+)`")
	strongStar     = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	strongUnder    = regexp.MustCompile(`__([^_\n]+)__`)
	emphasisStar   = regexp.MustCompile(`\*([^*\n]+)\*`)
	emphasisUnder  = regexp.MustCompile(`(^|[^\w])_([^_\n]+)_([^\w]|$)`)
)

// stripMarkdown removes markdown syntax and keeps the readable text.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = horizontalRule.ReplaceAllString(content, "")
	content = tableDivider.ReplaceAllString(content, "")
	content = listMarker.ReplaceAllString(content, "$1")
	content = numberedMarker.ReplaceAllString(content, "$1")
	content = headingMarker.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = image.ReplaceAllString(content, "$1")
	content = link.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = strongStar.ReplaceAllString(content, "$1")
	content = strongUnder.ReplaceAllString(content, "$1")
	content = emphasisStar.ReplaceAllString(content, "$1")
	content = emphasisUnder.ReplaceAllString(content, "$1$2$3")

	return strings.TrimSpace(content)
}
