package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRefusal(t *testing.T) {
	assert.True(t, IsRefusal("I'm sorry, but I can't help with identifying people."))
	assert.True(t, IsRefusal("很抱歉，我無法協助分析這張圖片"))
	assert.False(t, IsRefusal("粉絲數: 1,200，內容以旅遊為主"))
}

func TestSalvageBusinessSentence(t *testing.T) {
	text := "抱歉，我無法提供精確估價。\n\n### 商業分析：\n**旅遊內容具備穩定的品牌合作潛力。** 其他細節略。"

	sentence, ok := SalvageBusinessSentence(text)

	assert.True(t, ok)
	assert.Equal(t, "旅遊內容具備穩定的品牌合作潛力。", sentence)

	_, ok = SalvageBusinessSentence("I'm sorry, I cannot help.")
	assert.False(t, ok)
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("擁有10.1K粉絲。畫面乾淨! Next one. 最後")
	assert.Equal(t, []string{"擁有10.1K粉絲。", "畫面乾淨!", "Next one.", "最後"}, got)
}

func TestNormalizeAndProse(t *testing.T) {
	raw := "\ufeff毒舌短評：好看\r\n\r\n\r\n\r\n分析   \n```json\n{\"a\":1}\n```"
	normalized := Normalize(raw)

	assert.Equal(t, "毒舌短評：好看\n\n分析\n```json\n{\"a\":1}\n```", normalized)
	assert.Equal(t, "毒舌短評：好看\n\n分析", AnalysisProse(normalized))
	assert.Equal(t, "{\"a\":1}", StripFences("```json\n{\"a\":1}\n```"))
}

func TestExtractPricing(t *testing.T) {
	text := "帳號估值約 NT$ 50,000 - NT$ 80,000，因為受眾精準。\nPost 報價：NT$ 3,000\n限時動態：NT$800\nReels：NT$ 4,500\n建議：固定每週發文"

	pricing := ExtractPricing(text)

	assert.Equal(t, 50000, pricing.AccountMin)
	assert.Equal(t, 80000, pricing.AccountMax)
	assert.Equal(t, 3000, pricing.Post)
	assert.Equal(t, 800, pricing.Story)
	assert.Equal(t, 4500, pricing.Reels)
	assert.Equal(t, "受眾精準", pricing.Reasoning)
	assert.Equal(t, []string{"固定每週發文"}, pricing.Tips)
}

func TestEndsSentence(t *testing.T) {
	runes := []rune("約3.5倍. 好！")

	assert.False(t, EndsSentence(runes, 2))
	assert.True(t, EndsSentence(runes, 5))
	assert.True(t, EndsSentence(runes, len(runes)-1))
}
