package chunker

import (
	"strings"
	"unicode"
)

// DefaultSummaryLen is the character cap for chunk summaries.
const DefaultSummaryLen = 100

const ellipsis = "..."

// Summarize produces a single-line gist of chunk text, at most max
// characters. Priority: the first sentence if it fits, then the first
// non-heading line longer than 10 characters (truncated), then a hard
// truncation of the whole text. The result is never empty for non-empty
// input and never contains control characters.
func Summarize(text string, max int) string {
	if max <= 0 {
		max = DefaultSummaryLen
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	collapsed := collapseWhitespace(text)
	if s, ok := firstSentence(collapsed); ok && len(s) <= max {
		return s
	}

	for _, line := range strings.Split(text, "\n") {
		line = collapseWhitespace(line)
		if line == "" || strings.HasPrefix(line, "#") || len(line) <= 10 {
			continue
		}
		return truncate(line, max)
	}

	return truncate(collapsed, max)
}

// firstSentence returns the leading sentence of s, ending in '.', '!' or '?'.
func firstSentence(s string) (string, bool) {
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return strings.TrimSpace(s[:i+1]), true
		}
	}
	return "", false
}

// truncate caps s at max characters, ellipsis included.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len(ellipsis)
	if cut < 1 {
		cut = 1
	}
	// Back off to a rune boundary so we never split a multibyte character.
	for cut > 1 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

// collapseWhitespace replaces runs of whitespace (including control
// characters) with single spaces and trims the ends.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
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
