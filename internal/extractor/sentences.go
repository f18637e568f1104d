package extractor

import (
	"strings"
	"unicode"
)

// SplitSentences breaks text at newlines and terminal punctuation, keeping
// the punctuation. An ASCII '.' only ends a sentence when followed by
// whitespace or the end of text, so "10.1K" stays whole.
func SplitSentences(text string) []string {
	runes := []rune(text)

	var result []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			result = append(result, s)
		}
		current.Reset()
	}

	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}

		current.WriteRune(r)

		if EndsSentence(runes, i) {
			flush()
		}
	}
	flush()

	return result
}

// EndsSentence reports whether runes[i] is terminal punctuation in context.
// An ASCII '.' counts only before whitespace or the end, so decimals such as
// "3.5" are never split.
func EndsSentence(runes []rune, i int) bool {
	if runes[i] != '.' {
		return IsTerminalPunct(runes[i])
	}
	return i+1 == len(runes) || unicode.IsSpace(runes[i+1])
}

// IsTerminalPunct reports whether r ends a sentence.
func IsTerminalPunct(r rune) bool {
	switch r {
	case '。', '.', '!', '?', '！', '？':
		return true
	}
	return false
}
