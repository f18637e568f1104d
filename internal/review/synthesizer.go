// Package review produces the one-line roast shown next to a valuation.
package review

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"igvalue/ig-value-estimator/internal/extractor"
)

// Source names the cascade stage a review came from.
type Source string

const (
	SourceMarker   Source = "marker"
	SourceSalvage  Source = "business_salvage"
	SourceTemplate Source = "follower_template"
	SourceApology  Source = "apology"
)

const (
	DefaultMaxRunes = 60
	maxMarkerLines  = 3
	apology         = "抱歉，這次沒能看清楚截圖，換一張清晰的個人頁再試一次吧！"
)

var (
	markerPattern = regexp.MustCompile(`(?im)^[\s#>*\-]*(?:毒舌短評|毒舌點評|一句話短評|短評|short\s+review|quick\s+take)[\s*#]*[:：]?[\s*]*`)
	emphasis      = strings.NewReplacer("**", "", "__", "", "~~", "", "`", "")
	numbers       = message.NewPrinter(language.English)
)

type Synthesizer struct {
	maxRunes int
	logger   *zap.Logger
}

func NewSynthesizer(maxRunes int, logger *zap.Logger) *Synthesizer {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{maxRunes: maxRunes, logger: logger}
}

// Synthesize returns a short review for raw. The result is never empty and
// always ends in terminal punctuation.
func (s *Synthesizer) Synthesize(raw string, profile extractor.Profile) string {
	review, _ := s.SynthesizeWithSource(raw, profile)
	return review
}

func (s *Synthesizer) SynthesizeWithSource(raw string, profile extractor.Profile) (string, Source) {
	text := extractor.Normalize(raw)

	if candidate, ok := markerLines(text); ok {
		if review := s.finalize(candidate); review != "" {
			return review, SourceMarker
		}
	}

	if extractor.IsRefusal(text) {
		if candidate, ok := extractor.SalvageBusinessSentence(text); ok {
			if review := s.finalize(candidate); review != "" {
				return review, SourceSalvage
			}
		}
		s.logger.Debug("Refusal without business analysis section")
	}

	if profile.HasCounts() {
		return s.finalize(followerTemplate(profile.Followers)), SourceTemplate
	}

	return s.finalize(apology), SourceApology
}

// markerLines returns up to three lines following a review label.
func markerLines(text string) (string, bool) {
	loc := markerPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	var lines []string
	for i, line := range strings.Split(text[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if i == 0 {
				continue
			}
			break
		}
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "{") ||
			strings.HasPrefix(line, "#") || strings.HasPrefix(line, "|") {
			break
		}
		lines = append(lines, line)
		if len(lines) == maxMarkerLines {
			break
		}
	}

	if len(lines) == 0 {
		return "", false
	}
	return joinLines(lines), true
}

func joinLines(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(b.String())
			next, _ := utf8.DecodeRuneInString(line)
			if prev < utf8.RuneSelf && next < utf8.RuneSelf {
				b.WriteByte(' ')
			}
		}
		b.WriteString(line)
	}
	return b.String()
}

func followerTemplate(followers int) string {
	count := numbers.Sprintf("%d", followers)
	switch {
	case followers < 1_000:
		return count + " 位粉絲的小帳號，內容用心但還在暖身，先把風格定下來再談合作。"
	case followers < 10_000:
		return count + " 粉絲的微型創作者，接業配的底子有了，差的是更穩定的主題。"
	default:
		return "坐擁 " + count + " 粉絲，商業價值已經成形，接下來拚的是內容辨識度。"
	}
}

// finalize strips markup, bounds the length and guarantees terminal
// punctuation. It returns "" only when nothing printable is left.
func (s *Synthesizer) finalize(text string) string {
	text = emphasis.Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, "*_#>-•「」“”\"' ")
	text = truncate(text, s.maxRunes)
	text = strings.TrimRight(text, ",;，；、:： ")
	if text == "" {
		return ""
	}

	// A hard cut can stop on the point of a decimal ("約3.").
	if before, ok := strings.CutSuffix(text, "."); ok {
		if r, _ := utf8.DecodeLastRuneInString(before); unicode.IsDigit(r) {
			text = before
		}
	}

	last, _ := utf8.DecodeLastRuneInString(text)
	if extractor.IsTerminalPunct(last) {
		return text
	}
	if containsHan(text) {
		return text + "。"
	}
	return text + "."
}

// truncate cuts to limit runes, preferring a clause boundary in the last
// third of the budget. Terminal punctuation at the cut is kept.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	for i := limit - 1; i >= limit*2/3; i-- {
		switch {
		case extractor.EndsSentence(runes, i):
			return string(runes[:i+1])
		case isClauseBreak(runes[i]):
			return string(runes[:i])
		}
	}
	return string(runes[:limit])
}

func isClauseBreak(r rune) bool {
	switch r {
	case '，', ',', '、', '；', ';', '：', ':', ' ':
		return true
	}
	return false
}

func containsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
