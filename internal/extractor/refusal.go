package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var refusalPhrases = []string{
	"i'm sorry",
	"i am sorry",
	"i cannot",
	"i can't",
	"i'm unable",
	"i am unable",
	"unable to assist",
	"can't help with",
	"cannot help with",
	"很抱歉",
	"抱歉",
	"無法協助",
	"无法协助",
	"無法提供",
	"无法提供",
	"無法分析",
	"无法分析",
	"無法辨識",
	"無法識別",
	"不能協助",
	"不便提供",
}

var businessSectionPattern = regexp.MustCompile(`(?i)(?:商業價值分析|商業分析|商业分析|商業價值|business\s+analysis)\s*[*#]*\s*[:：]?\s*[*#]*`)

// IsRefusal reports whether the model declined the task.
func IsRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// SalvageBusinessSentence pulls the first usable sentence out of a labelled
// business-analysis section. Models that refuse the valuation often still
// write that section.
func SalvageBusinessSentence(text string) (string, bool) {
	loc := businessSectionPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	for _, sentence := range SplitSentences(StripFences(text[loc[1]:])) {
		sentence = strings.TrimLeft(sentence, "-*•#> \t")
		if utf8.RuneCountInString(sentence) < 6 || IsRefusal(sentence) {
			continue
		}
		if strings.HasPrefix(sentence, "{") {
			break
		}
		return sentence, true
	}

	return "", false
}
