package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	normaliser := New()
	mimeTypes := normaliser.SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
	assert.Len(t, mimeTypes, 2)
}

func TestPriority(t *testing.T) {
	normaliser := New()
	assert.Equal(t, 50, normaliser.Priority())
}

func TestNormalise_Success(t *testing.T) {
	normaliser := New()

	raw := &domain.RawContent{
		FileID:   "f1",
		Name:     "readme.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Title\n\nSome **bold** text."),
	}

	text, err := normaliser.Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nSome bold text.", text)
}

func TestNormalise_NilContent(t *testing.T) {
	normaliser := New()

	text, err := normaliser.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, text)
}

func TestNormalise_EmptyContent(t *testing.T) {
	normaliser := New()

	text, err := normaliser.Normalise(context.Background(), &domain.RawContent{MIMEType: "text/markdown"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "headings removed",
			input:    "# Title\n## Subtitle\n### Third",
			expected: "Title\nSubtitle\nThird",
		},
		{
			name:     "bold removed",
			input:    "This is **bold** and __strong__ text",
			expected: "This is bold and strong text",
		},
		{
			name:     "italic removed",
			input:    "This is *italic* and _emphasis_ text",
			expected: "This is italic and emphasis text",
		},
		{
			name:     "snake case kept",
			input:    "Call my_helper_func now",
			expected: "Call my_helper_func now",
		},
		{
			name:     "links converted",
			input:    "Click [here](https://example.com)",
			expected: "Click here",
		},
		{
			name:     "image alt text kept",
			input:    "See ![diagram](image.png) here",
			expected: "See diagram here",
		},
		{
			name:     "code fences removed, code kept",
			input:    "Before\n```go\ncode here\n```\nAfter",
			expected: "Before\ncode here\nAfter",
		},
		{
			name:     "inline code kept",
			input:    "Use `go test` here",
			expected: "Use go test here",
		},
		{
			name:     "blockquotes cleaned",
			input:    "> This is a quote",
			expected: "This is a quote",
		},
		{
			name:     "list markers removed",
			input:    "- Item 1\n- Item 2",
			expected: "Item 1\nItem 2",
		},
		{
			name:     "numbered list markers removed",
			input:    "1. First\n2. Second",
			expected: "First\nSecond",
		},
		{
			name:     "horizontal rule removed",
			input:    "Above\n---\nBelow",
			expected: "Above\n\nBelow",
		},
		{
			name:     "table divider removed",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			expected: "| a | b |\n\n| 1 | 2 |",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestNormalise_ComplexMarkdown(t *testing.T) {
	normaliser := New()

	complexMarkdown := `# Main Title

## Section 1

This is a paragraph with **bold** and *italic* text.

- List item 1
- List item 2
  - Nested item

` + "```go" + `
func main() {
    fmt.Println("Hello, World!")
}
` + "```" + `

[Link](https://example.com)
`

	text, err := normaliser.Normalise(context.Background(), &domain.RawContent{
		Name:     "complex.md",
		MIMEType: "text/markdown",
		Content:  []byte(complexMarkdown),
	})
	require.NoError(t, err)

	assert.NotContains(t, text, "**bold**")
	assert.Contains(t, text, "bold")
	assert.NotContains(t, text, "[Link]")
	assert.Contains(t, text, "Link")
	assert.NotContains(t, text, "```")
	assert.Contains(t, text, `fmt.Println("Hello, World!")`)
	assert.Contains(t, text, "Nested item")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkStripMarkdown(b *testing.B) {
	content := "# Heading\n\nParagraph with **bold** and [link](http://x).\n\n- a\n- b\n"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stripMarkdown(content)
	}
}
