package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

const contextSeparator = "\n\n---\n\n"

// BuildContext formats retrieved chunks into a labelled, source-attributed
// block for prompt injection. Returns "" for no chunks.
func BuildContext(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		name := c.DocumentName
		if name == "" {
			name = c.Chunk.Metadata.FileName
		}
		if name == "" {
			name = "unknown"
		}
		header := fmt.Sprintf("[Source %d: %s] (relevance: %.2f)", i+1, name, c.Similarity)
		parts = append(parts, header+"\n"+strings.TrimSpace(c.Chunk.Content))
	}

	return "Relevant context from the knowledge base:\n\n" + strings.Join(parts, contextSeparator)
}

// BuildProfileContext renders brand framing for a profile.
// Returns "" for a nil or empty profile.
func BuildProfileContext(p *domain.Profile) string {
	if p == nil || p.IsEmpty() {
		return ""
	}

	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "Brand profile: %s\n", p.Name)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "About: %s\n", p.Description)
	}
	if p.BrandVoice != "" {
		fmt.Fprintf(&b, "Brand voice: %s\n", p.BrandVoice)
	}
	if p.Audience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", p.Audience)
	}
	if len(p.Guidelines) > 0 {
		b.WriteString("Guidelines:\n")
		for _, g := range p.Guidelines {
			if g = strings.TrimSpace(g); g != "" {
				fmt.Fprintf(&b, "- %s\n", g)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// CombineContext joins profile framing and retrieved context, skipping empty parts.
func CombineContext(profileContext, context string) string {
	switch {
	case profileContext == "":
		return context
	case context == "":
		return profileContext
	default:
		return profileContext + "\n\n" + context
	}
}
