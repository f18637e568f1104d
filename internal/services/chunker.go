package services

import (
	"strings"
	"unicode/utf8"

	"igvalue/ig-value-estimator/internal/extractor"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Sizes are in runes; rate cards are
// mostly CJK text.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunks = append(chunks, current.String())
		current.Reset()
		if overlap > 0 {
			current.WriteString(getLastNChars(chunks[len(chunks)-1], overlap))
		}
	}

	add := func(piece, separator string) {
		size := utf8.RuneCountInString(current.String())
		if size > 0 && size+utf8.RuneCountInString(piece)+utf8.RuneCountInString(separator) > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(separator)
		}
		current.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			add(para, "\n\n")
			continue
		}

		// Long paragraph: fall back to sentences.
		for _, sentence := range extractor.SplitSentences(para) {
			add(sentence, " ")
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func getLastNChars(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
