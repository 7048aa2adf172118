package chunker

import (
	"unicode"
	"unicode/utf8"
)

// span is the byte range of one token.
type span struct {
	start, end int
}

// Tokenizer splits text into word and punctuation tokens.
// A word token is a maximal run of letters, digits, marks or underscores;
// every other non-space rune is a token of its own. Whitespace separates
// tokens and never counts.
//
// A Tokenizer reuses an internal buffer and is not safe for concurrent use.
type Tokenizer struct {
	scratch []span
}

// NewTokenizer creates a tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{scratch: make([]span, 0, 1024)}
}

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		switch {
		case isWordRune(r):
			if !inWord {
				n++
			}
			inWord = true
		case unicode.IsSpace(r):
			inWord = false
		default:
			n++
			inWord = false
		}
	}
	return n
}

// spans returns token boundaries of s. The result aliases the scratch
// buffer and is only valid until the next call.
func (t *Tokenizer) spans(s string) []span {
	t.scratch = t.scratch[:0]
	start := -1
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		word := isWordRune(r)
		if start >= 0 && !word {
			t.scratch = append(t.scratch, span{start, i})
			start = -1
		}
		switch {
		case word:
			if start < 0 {
				start = i
			}
		case !unicode.IsSpace(r):
			t.scratch = append(t.scratch, span{i, i + size})
		}
		i += size
	}
	if start >= 0 {
		t.scratch = append(t.scratch, span{start, len(s)})
	}
	return t.scratch
}

// release drops the scratch buffer.
func (t *Tokenizer) release() {
	t.scratch = nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
