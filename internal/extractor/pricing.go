package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// TextPricing is what the prose itself quotes, independent of the engine.
// It is informational only.
type TextPricing struct {
	AccountMin int      `json:"account_min"`
	AccountMax int      `json:"account_max"`
	Post       int      `json:"post"`
	Story      int      `json:"story"`
	Reels      int      `json:"reels"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Tips       []string `json:"tips,omitempty"`
}

var (
	priceRangePatterns = compileAll(
		`(?:價值|估值)[約為]*\s*NT\$?\s*([0-9,]+)\s*[-~至到]\s*NT\$?\s*([0-9,]+)`,
		`NT\$?\s*([0-9,]+)\s*[-~至到]\s*NT\$?\s*([0-9,]+)`,
		`([0-9,]+)\s*[-~至到]\s*([0-9,]+)\s*元`,
	)
	singlePricePatterns = compileAll(
		`(?:價值|估值)[約為]*\s*NT\$?\s*([0-9,]+)`,
		`NT\$\s*([0-9,]+)`,
		`([0-9,]+)\s*元`,
	)
	postPricePatterns = compileAll(
		`(?i)post[^0-9\n]*NT\$?\s*([0-9,]+)`,
		`貼文[^0-9\n]*NT\$?\s*([0-9,]+)`,
		`單篇[^0-9\n]*NT\$?\s*([0-9,]+)`,
	)
	storyPricePatterns = compileAll(
		`(?i)story[^0-9\n]*NT\$?\s*([0-9,]+)`,
		`限時動態[^0-9\n]*NT\$?\s*([0-9,]+)`,
	)
	reelsPricePatterns = compileAll(
		`(?i)reels?[^0-9\n]*NT\$?\s*([0-9,]+)`,
		`短影片[^0-9\n]*NT\$?\s*([0-9,]+)`,
	)
	reasoningPatterns = compileAll(
		`因為([^。\n]+)`,
		`由於([^。\n]+)`,
		`基於([^。\n]+)`,
		`根據([^。\n]+)`,
	)
	tipPattern = regexp.MustCompile(`建議[：:]?\s*([^。\n]+)`)
)

// ExtractPricing reads the NT$ figures a model quoted in prose.
func ExtractPricing(text string) TextPricing {
	var pricing TextPricing

	for _, pattern := range priceRangePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			pricing.AccountMin = atoiSeparated(match[1])
			pricing.AccountMax = atoiSeparated(match[2])
			break
		}
	}
	if pricing.AccountMin == 0 && pricing.AccountMax == 0 {
		for _, pattern := range singlePricePatterns {
			if match := pattern.FindStringSubmatch(text); match != nil {
				pricing.AccountMin = atoiSeparated(match[1])
				pricing.AccountMax = pricing.AccountMin
				break
			}
		}
	}

	pricing.Post = firstPrice(postPricePatterns, text)
	pricing.Story = firstPrice(storyPricePatterns, text)
	pricing.Reels = firstPrice(reelsPricePatterns, text)

	for _, pattern := range reasoningPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			pricing.Reasoning = strings.TrimSpace(match[1])
			break
		}
	}

	for _, match := range tipPattern.FindAllStringSubmatch(text, 5) {
		if tip := strings.TrimSpace(match[1]); tip != "" {
			pricing.Tips = append(pricing.Tips, tip)
		}
	}

	return pricing
}

func firstPrice(patterns []*regexp.Regexp, text string) int {
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return atoiSeparated(match[1])
		}
	}
	return 0
}

func atoiSeparated(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
