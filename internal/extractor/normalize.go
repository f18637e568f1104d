// Package extractor recovers structured profile data from free-form vision
// model output. Nothing in this package returns an error for malformed
// input; callers get a zero value or a best-effort record instead.
package extractor

import (
	"regexp"
	"strings"
)

var (
	invisibleRunes = strings.NewReplacer(
		"\ufeff", "",
		"\u200b", "",
		"\u200c", "",
		"\u200d", "",
		"\u2060", "",
		"\u00a0", " ",
		"\u3000", " ",
		"\r\n", "\n",
		"\r", "\n",
	)
	trailingSpaces   = regexp.MustCompile(`[ \t]+\n`)
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	fenceLine        = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z]*[ \t]*$\n?")
)

// Normalize cleans whitespace noise out of a raw model response. Markdown
// fences are kept because the fenced-block strategy depends on them; use
// StripFences for prose destined for users.
func Normalize(raw string) string {
	text := invisibleRunes.Replace(raw)
	text = trailingSpaces.ReplaceAllString(text, "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripFences removes markdown fence lines and keeps what they enclosed.
func StripFences(text string) string {
	return strings.TrimSpace(fenceLine.ReplaceAllString(text, ""))
}

// AnalysisProse returns the narrative that precedes the first JSON object
// or fenced block, fences removed.
func AnalysisProse(text string) string {
	cut := len(text)
	if i := strings.Index(text, "```"); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.IndexByte(text, '{'); i >= 0 && i < cut {
		cut = i
	}
	return StripFences(text[:cut])
}
