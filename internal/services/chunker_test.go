package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextKeepsShortTextWhole(t *testing.T) {
	chunks := NewTextChunker().ChunkText("第一段\n\n第二段", 1000, 200)

	assert.Equal(t, []string{"第一段\n\n第二段"}, chunks)
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("甲", 40) + "\n\n" + strings.Repeat("乙", 40) + "\n\n" + strings.Repeat("丙", 40)

	chunks := NewTextChunker().ChunkText(text, 100, 10)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("甲", 40)+"\n\n"+strings.Repeat("乙", 40), chunks[0])
	assert.Equal(t, strings.Repeat("乙", 10)+"\n\n"+strings.Repeat("丙", 40), chunks[1])
}

func TestChunkTextSplitsLongParagraphBySentence(t *testing.T) {
	sentence := strings.Repeat("報價", 15) + "。"
	text := strings.Repeat(sentence, 4)

	chunks := NewTextChunker().ChunkText(text, 70, 0)

	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.True(t, strings.HasSuffix(chunk, "。"))
		assert.LessOrEqual(t, len([]rune(chunk)), 70)
	}
}
