package normalisers

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps MIME types to normalisers.
// When several normalisers handle a type the highest priority wins;
// exact matches are preferred over "family/*" wildcards at equal priority.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
}

// Get returns the normaliser to use for mimeType.
// Returns domain.ErrUnsupportedType when nothing matches.
func (r *Registry) Get(mimeType string) (driven.Normaliser, error) {
	mt := baseMIMEType(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best      driven.Normaliser
		bestScore = -1
	)
	for _, n := range r.normalisers {
		specificity := match(n.SupportedMIMETypes(), mt)
		if specificity == 0 {
			continue
		}
		// Priority dominates; specificity breaks ties.
		score := n.Priority()*2 + specificity - 1
		if score > bestScore {
			best, bestScore = n, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrUnsupportedType, mimeType)
	}
	return best, nil
}

// Supports reports whether any normaliser handles mimeType.
func (r *Registry) Supports(mimeType string) bool {
	_, err := r.Get(mimeType)
	return err == nil
}

// Normalise extracts text with the selected normaliser and cleans it.
// Every failure wraps domain.ErrExtraction, including an empty result.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.NewExtractionError("no content")
	}

	n, err := r.Get(raw.MIMEType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	text, err := n.Normalise(ctx, raw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	text = Clean(text)
	if text == "" {
		return "", domain.NewExtractionError("No text content extracted")
	}
	return text, nil
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string //nolint:prealloc // size unknown until deduplicated
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if seen[t] {
				continue
			}
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

// match returns 2 for an exact match, 1 for a wildcard match and 0 otherwise.
func match(patterns []string, mimeType string) int {
	result := 0
	for _, p := range patterns {
		p = strings.ToLower(p)
		if p == mimeType {
			return 2
		}
		if family, ok := strings.CutSuffix(p, "/*"); ok && strings.HasPrefix(mimeType, family+"/") {
			result = 1
		}
	}
	return result
}

// baseMIMEType drops parameters such as charset and lowercases the type.
func baseMIMEType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
