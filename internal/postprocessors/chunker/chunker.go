// Package chunker splits normalised text into bounded, overlapping chunks.
//
// Sizes are measured in Tokenizer units. Text is split recursively on the
// coarsest separator that works (paragraph, line, sentence, word) and
// finally cut at token boundaries, so no piece exceeds the maximum. Pieces
// are then packed greedily into chunks.
//
// Overlap policy: each chunk after the first starts with the trailing whole
// pieces of the previous chunk whose tokens total at most the overlap
// budget. Pieces are never split to fill the budget, so a chunk that ends
// in a long paragraph may carry no overlap at all. Overlap is reduced
// further if it would push the next chunk past the maximum.
//
// A final chunk below the minimum takes whole pieces from the end of its
// predecessor until it reaches the minimum or no further move fits.
package chunker

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Default bounds in tokenizer units.
const (
	DefaultMaxTokens     = 512
	DefaultMinTokens     = 32
	DefaultOverlapTokens = 64
)

// ErrChunkerClosed is returned by Chunk after Close.
var ErrChunkerClosed = errors.New("chunker is closed")

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// separators in order of preference. A match stays attached to the text
// before it, so concatenating the parts restores the input.
var separators = []*regexp.Regexp{
	regexp.MustCompile(`\n[ \t]*\n\s*`),     // paragraph
	regexp.MustCompile(`\n`),                // line
	regexp.MustCompile(`[.!?]+["')\]]*\s+`), // sentence
	regexp.MustCompile(`\s+`),               // word
}

// Chunker splits text into chunks. It owns a Tokenizer and is not safe
// for concurrent use.
type Chunker struct {
	tokenizer     *Tokenizer
	maxTokens     int
	minTokens     int
	overlapTokens int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxTokens sets the hard upper bound per chunk.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMinTokens sets the size under which a trailing chunk is merged.
func WithMinTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap budget between adjacent chunks.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		minTokens:     DefaultMinTokens,
		overlapTokens: DefaultOverlapTokens,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay under half a chunk.
	if c.overlapTokens*2 >= c.maxTokens {
		c.overlapTokens = c.maxTokens / 4
	}
	if c.minTokens > c.maxTokens {
		c.minTokens = c.maxTokens
	}

	c.tokenizer = NewTokenizer()
	return c
}

// MaxTokens returns the upper bound per chunk.
func (c *Chunker) MaxTokens() int { return c.maxTokens }

// MinTokens returns the merge floor.
func (c *Chunker) MinTokens() int { return c.minTokens }

// OverlapTokens returns the overlap budget.
func (c *Chunker) OverlapTokens() int { return c.overlapTokens }

// Chunk splits text into drafts indexed from 0 in source order.
// Blank text yields an empty slice, not an error.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]domain.ChunkDraft, error) {
	if c.tokenizer == nil {
		return nil, ErrChunkerClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []domain.ChunkDraft{}, nil
	}

	pieces := c.split(text, 0, nil)
	groups := c.balanceTail(c.pack(pieces))

	drafts := make([]domain.ChunkDraft, 0, len(groups))
	for _, g := range groups {
		content := strings.TrimSpace(g.text())
		if content == "" {
			continue
		}
		drafts = append(drafts, domain.ChunkDraft{
			Index:      len(drafts),
			Content:    content,
			TokenCount: g.tokens,
		})
	}
	return drafts, nil
}

// Close releases the tokenizer. It is safe to call more than once.
func (c *Chunker) Close() error {
	if c.tokenizer != nil {
		c.tokenizer.release()
		c.tokenizer = nil
	}
	return nil
}

// piece is a span of text no larger than maxTokens.
type piece struct {
	text   string
	tokens int
}

// group is a chunk under construction. The first seed pieces are overlap
// carried over from the previous chunk.
type group struct {
	pieces     []piece
	tokens     int
	seed       int
	seedTokens int
}

func (g group) text() string {
	var b strings.Builder
	for _, p := range g.pieces {
		b.WriteString(p.text)
	}
	return b.String()
}

// split breaks text into pieces of at most maxTokens, trying separators
// from coarsest to finest and cutting at token boundaries as a last resort.
func (c *Chunker) split(text string, level int, out []piece) []piece {
	n := c.tokenizer.Count(text)
	if n <= c.maxTokens {
		return append(out, piece{text: text, tokens: n})
	}
	if level == len(separators) {
		return c.cut(text, out)
	}

	parts := splitAfter(text, separators[level])
	if len(parts) == 1 {
		return c.split(text, level+1, out)
	}
	for _, part := range parts {
		out = c.split(part, level+1, out)
	}
	return out
}

// cut slices text every maxTokens tokens.
func (c *Chunker) cut(text string, out []piece) []piece {
	spans := c.tokenizer.spans(text)
	for i := 0; i < len(spans); i += c.maxTokens {
		start := 0
		if i > 0 {
			start = spans[i].start
		}
		end := len(text)
		next := i + c.maxTokens
		if next < len(spans) {
			end = spans[next].start
		}
		out = append(out, piece{text: text[start:end], tokens: min(c.maxTokens, len(spans)-i)})
	}
	return out
}

// pack fills chunks greedily up to maxTokens.
func (c *Chunker) pack(pieces []piece) []group {
	var (
		groups []group
		cur    group
	)
	for _, p := range pieces {
		if cur.tokens > cur.seedTokens && cur.tokens+p.tokens > c.maxTokens {
			groups = append(groups, cur)
			cur = c.overlap(cur, p.tokens)
		}
		cur.pieces = append(cur.pieces, p)
		cur.tokens += p.tokens
	}
	if cur.tokens > cur.seedTokens {
		groups = append(groups, cur)
	}
	return groups
}

// overlap seeds the next chunk with trailing whole pieces of prev.
// next is the size of the piece that will follow the seed.
func (c *Chunker) overlap(prev group, next int) group {
	budget := min(c.overlapTokens, c.maxTokens-next)
	if budget <= 0 {
		return group{}
	}

	tokens := 0
	i := len(prev.pieces)
	for i > 0 && tokens+prev.pieces[i-1].tokens <= budget {
		tokens += prev.pieces[i-1].tokens
		i--
	}
	if tokens == 0 {
		return group{}
	}

	seed := append([]piece(nil), prev.pieces[i:]...)
	return group{pieces: seed, tokens: tokens, seed: len(seed), seedTokens: tokens}
}

// balanceTail grows a final chunk smaller than minTokens by moving whole
// pieces off the end of its predecessor. Greedy packing guarantees the
// final chunk never fits into the predecessor, so pieces move the other
// way. Both chunks stay within maxTokens and the predecessor keeps at least
// minTokens and one piece of its own. The final chunk's overlap is rebuilt
// from the shortened predecessor.
func (c *Chunker) balanceTail(groups []group) []group {
	n := len(groups)
	if n < 2 || groups[n-1].tokens >= c.minTokens {
		return groups
	}

	prev, last := groups[n-2], groups[n-1]
	fresh := last.pieces[last.seed:]
	freshTokens := last.tokens - last.seedTokens

	moved, movedTokens := 0, 0
	for k := len(prev.pieces) - 1; k > prev.seed; k-- {
		t := movedTokens + prev.pieces[k].tokens
		if t+freshTokens > c.maxTokens || prev.tokens-t < c.minTokens {
			break
		}
		moved, movedTokens = moved+1, t
		if movedTokens+freshTokens >= c.minTokens {
			break
		}
	}
	if moved == 0 {
		return groups
	}

	cut := len(prev.pieces) - moved
	body := append(append([]piece(nil), prev.pieces[cut:]...), fresh...)
	bodyTokens := movedTokens + freshTokens

	prev.pieces = prev.pieces[:cut:cut]
	prev.tokens -= movedTokens

	last = c.overlap(prev, bodyTokens)
	last.pieces = append(last.pieces, body...)
	last.tokens += bodyTokens

	groups[n-2], groups[n-1] = prev, last
	return groups
}

// splitAfter splits text after every match of sep.
func splitAfter(text string, sep *regexp.Regexp) []string {
	locs := sep.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	parts := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		if loc[1] <= start {
			continue
		}
		parts = append(parts, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}
