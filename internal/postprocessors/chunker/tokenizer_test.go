package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Count(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty", input: "", expected: 0},
		{name: "whitespace", input: " \n\t ", expected: 0},
		{name: "words", input: "the quick brown fox", expected: 4},
		{name: "punctuation", input: "Hello, world!", expected: 4},
		{name: "digits and underscores", input: "order_id 42x", expected: 2},
		{name: "unicode letters", input: "caf\u00e9 na\u00efve", expected: 2},
		{name: "symbols", input: "a+b=c", expected: 5},
	}

	tok := NewTokenizer()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tok.Count(tc.input))
		})
	}
}

func TestTokenizer_SpansMatchCount(t *testing.T) {
	tok := NewTokenizer()
	input := "Hello, wide world! 3.14 is pi."

	spans := tok.spans(input)
	assert.Len(t, spans, tok.Count(input))

	words := make([]string, len(spans))
	for i, s := range spans {
		words[i] = input[s.start:s.end]
	}
	assert.Equal(t, []string{"Hello", ",", "wide", "world", "!", "3", ".", "14", "is", "pi", "."}, words)
}

func TestTokenizer_SpansReuseScratch(t *testing.T) {
	tok := NewTokenizer()

	first := tok.spans("one two three")
	assert.Len(t, first, 3)

	second := tok.spans("four")
	assert.Len(t, second, 1)
	assert.Equal(t, span{0, 4}, second[0])
}
