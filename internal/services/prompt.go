package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/valuation"
)

const analysisSystemPrompt = `你是專業的 Instagram 行銷顧問，熟悉台灣網紅業配行情。請使用繁體中文回答，所有價格以新台幣(NT$)計算。JSON 欄位名稱一律使用英文。`

type PromptBuilder struct {
	numbers *message.Printer
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		numbers: message.NewPrinter(language.English),
	}
}

// SystemPrompt is sent with every analysis call.
func (pb *PromptBuilder) SystemPrompt() string {
	return analysisSystemPrompt
}

// BuildOCRPrompt asks only for the numbers on the profile screenshot.
func (pb *PromptBuilder) BuildOCRPrompt() string {
	return `請從這個 Instagram 個人頁截圖中提取以下資訊：

1. username（用戶名，不含 @）
2. display_name（顯示名稱）
3. followers（粉絲數）
4. following（追蹤數）
5. posts（貼文數）

請以 JSON 格式回傳：
` + "```json" + `
{
  "username": "user123",
  "display_name": "User Name",
  "followers": 7200,
  "following": 850,
  "posts": 342
}
` + "```" + `

只回傳 JSON，不要其他文字。`
}

// BuildAnalysisPrompt creates the full valuation prompt. Known counts are
// given to the model so it does not have to re-read them; references is the
// formatted rate-card context and may be empty.
func (pb *PromptBuilder) BuildAnalysisPrompt(profile extractor.Profile, postCount int, references string) string {
	var b strings.Builder

	b.WriteString("我的IG帳號如果要賣掉的話值多少錢，為什麼？怎麼精算出來的？Post、Story 和 Reels 應該怎麼計價？請解釋說明。\n\n")

	if profile.HasCounts() {
		b.WriteString("**基本數據：**\n")
		b.WriteString(pb.numbers.Sprintf("- 粉絲數：%d\n", profile.Followers))
		b.WriteString(pb.numbers.Sprintf("- 追蹤數：%d\n", profile.Following))
		b.WriteString(pb.numbers.Sprintf("- 貼文數：%d\n\n", profile.Posts))
	} else {
		b.WriteString("請先從第一張個人頁截圖讀出粉絲數、追蹤數與貼文數。\n\n")
	}

	if postCount > 0 {
		fmt.Fprintf(&b, "另外附上 %d 張貼文截圖，請一併評估視覺風格與內容類型。\n\n", postCount)
	}

	if references != "" {
		b.WriteString("**市場行情參考：**\n")
		b.WriteString(references)
		b.WriteString("\n\n")
	}

	b.WriteString("回答格式：\n")
	b.WriteString("1. 第一行寫「毒舌短評：」加上一句 60 字以內的犀利點評。\n")
	b.WriteString("2. 接著寫「商業價值分析：」說明估價理由，包含帳號價值區間與 Post / Story / Reels 報價。\n")
	b.WriteString("3. 最後附上一個 ```json 區塊，包含以下欄位：\n\n")
	b.WriteString("```json\n")
	b.WriteString(analysisJSONTemplate)
	b.WriteString("\n```\n\n")

	b.WriteString("personality_type.primary_type 必須是以下其中之一：\n")
	for _, p := range valuation.PersonalityTypes() {
		fmt.Fprintf(&b, "- %s：%s %s（%s）\n", p.ID, p.Emoji, p.NameZH, p.NameEN)
	}

	return b.String()
}

const analysisJSONTemplate = `{
  "basic_info": {"username": "user123", "display_name": "User Name", "followers": 7200, "following": 850, "posts": 342},
  "visual_quality": {"overall": 0-10, "consistency": 0-10},
  "content_type": {"primary": "內容主題", "category_tier": "high|mid_high|mid|low"},
  "content_format": {"video_focus": 0-10, "personal_connection": 0-10},
  "professionalism": {"has_contact": true, "is_business_account": false},
  "personality_type": {"primary_type": "type_1", "reasoning": "判斷理由"},
  "audience_value": {"audience_tier": "受眾描述"},
  "improvement_tips": ["建議一", "建議二", "建議三"]
}`

// BuildReferenceQuery creates the retrieval query for rate-card context.
func (pb *PromptBuilder) BuildReferenceQuery(niche string) string {
	niche = strings.TrimSpace(niche)
	if niche == "" {
		niche = "生活風格"
	}
	return fmt.Sprintf("%s IG 業配報價 pricing", niche)
}

// FormatReferenceContext renders retrieved rate-card chunks for the prompt.
func FormatReferenceContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- 參考 %d (相似度 %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
