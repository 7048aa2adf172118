package normalisers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// invisible runes removed outright: BOM, zero-width characters and soft hyphen.
var invisible = map[rune]bool{
	'\uFEFF': true,
	'\u200B': true,
	'\u200C': true,
	'\u200D': true,
	'\u2060': true,
	'\u00AD': true,
}

// Clean reduces extracted text to a canonical form so that two inputs with
// the same meaningful content produce byte-identical output.
//
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripInvisible(s)
	s = norm.NFC.String(s)

	lines := strings.Split(s, "\n")
	var b strings.Builder
	b.Grow(len(s))

	blank := 0
	for _, line := range lines {
		line = collapseSpaces(line)
		if line == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		blank = 0
		b.WriteString(line)
	}

	return b.String()
}

// stripInvisible drops control characters other than newline and tab,
// along with the invisible format characters.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == unicode.ReplacementChar:
			return -1
		case unicode.IsControl(r), invisible[r]:
			return -1
		}
		return r
	}, s)
}

// collapseSpaces turns every run of horizontal whitespace (including NBSP)
// into one ASCII space and trims both ends of the line.
func collapseSpaces(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	space := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
