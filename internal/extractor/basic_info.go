package extractor

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Unknown is the placeholder for an unresolved username or display name.
const Unknown = "unknown"

// Profile is the basic account record read off a screenshot.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	Posts       int    `json:"posts"`
}

func NewProfile() Profile {
	return Profile{Username: Unknown, DisplayName: Unknown}
}

// HasCounts reports whether any numeric field was recovered.
func (p Profile) HasCounts() bool {
	return p.Followers > 0 || p.Following > 0 || p.Posts > 0
}

// Merge fills p's unresolved fields from other.
func (p Profile) Merge(other Profile) Profile {
	if p.Username == Unknown || p.Username == "" {
		p.Username = other.Username
	}
	if p.DisplayName == Unknown || p.DisplayName == "" {
		p.DisplayName = other.DisplayName
	}
	if p.Followers == 0 {
		p.Followers = other.Followers
	}
	if p.Following == 0 {
		p.Following = other.Following
	}
	if p.Posts == 0 {
		p.Posts = other.Posts
	}
	if p.Username == "" {
		p.Username = Unknown
	}
	if p.DisplayName == "" {
		p.DisplayName = Unknown
	}
	return p
}

const labelSeparator = `\s*[:：=|]?\s*`

// Patterns run most specific first; the trailing "<n> followers" forms only
// fire when no labelled value exists, which keeps percentages and prices
// elsewhere in the prose out of the counts.
var (
	followerPatterns = compileAll(
		`(?i)(?:粉絲數量|粉絲數|粉絲人數|粉絲總數|粉丝数|followers?\s*count)`+labelSeparator+numberFragment,
		`(?i)(?:粉絲|粉丝|followers)\s*[:：=|]\s*`+numberFragment,
		`(?i)(?:粉絲|粉丝|followers)\s+`+numberFragment,
		numberFragment+`\s*(?:位|名|個)?\s*(?i:粉絲|粉丝|followers)`,
	)
	followingPatterns = compileAll(
		`(?i)(?:追蹤數|追蹤中|追蹤人數|正在追蹤|追踪数|关注数|following\s*count)`+labelSeparator+numberFragment,
		`(?i)(?:追蹤|追踪|关注|following)\s*[:：=|]\s*`+numberFragment,
		`(?i)following\s+`+numberFragment,
		numberFragment+`\s*(?:位|個)?\s*(?i:追蹤中|追蹤|追踪|following)`,
	)
	postPatterns = compileAll(
		`(?i)(?:貼文數量|貼文數|帖子數|帖子数|发帖数|posts?\s*count)`+labelSeparator+numberFragment,
		`(?i)(?:貼文|帖子|posts)\s*[:：=|]\s*`+numberFragment,
		`(?i)posts\s+`+numberFragment,
		numberFragment+`\s*(?:篇|則|個)?\s*(?i:貼文|帖子|posts)`,
	)
	usernamePatterns = compileAll(
		`(?i)(?:用戶名|用户名|使用者名稱|帳號名稱|帳號|账号|user\s*name|handle)`+labelSeparator+`@?([A-Za-z0-9._]+)`,
		`(?:^|[\s(（「])@([A-Za-z0-9._]{2,30})`,
	)
	displayNamePattern = regexp.MustCompile(`(?i)(?:顯示名稱|显示名称|暱稱|名稱|display\s*name)\s*[:：=|]\s*([^\n|]+)`)
	nextLabelPattern   = regexp.MustCompile(`(?i)\s+(?:用戶名|用户名|帳號|粉絲|粉丝|追蹤|追踪|貼文|帖子|username|followers|following|posts)`)
	emphasisMarks      = strings.NewReplacer("**", "", "__", "", "`", "")

	precedingCountPattern = regexp.MustCompile(`[0-9]\s*(?:[KkMm]|[萬万])?\s*(?:位|名|個|篇|則)?\s*$`)
	nextLabelAfterCount   = regexp.MustCompile(`^\s*(?:位|名|個|篇|則)?\s*(?i:粉絲|粉丝|追蹤|追踪|关注|貼文|帖子|followers|following|posts)`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// ExtractBasicInfo reads username, display name and counts out of prose.
// Fields nothing matched keep their zero or Unknown defaults.
func ExtractBasicInfo(text string) Profile {
	text = emphasisMarks.Replace(text)
	profile := NewProfile()

	profile.Followers = firstCount(followerPatterns, text)
	profile.Following = firstCount(followingPatterns, text)
	profile.Posts = firstCount(postPatterns, text)

	for _, pattern := range usernamePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			if username := NormalizeUsername(match[1]); username != Unknown {
				profile.Username = username
				break
			}
		}
	}

	if match := displayNamePattern.FindStringSubmatch(text); match != nil {
		if name := cleanDisplayName(match[1]); name != "" {
			profile.DisplayName = name
		}
	}

	return profile
}

func firstCount(patterns []*regexp.Regexp, text string) int {
	for _, pattern := range patterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if borrowsNextCount(text, loc) {
				continue
			}
			if value, ok := parseCount(group(text, loc, 1), group(text, loc, 2)+group(text, loc, 3)); ok {
				return value
			}
		}
	}
	return 0
}

// borrowsNextCount rejects a "label <n>" match with no explicit separator
// when <n> sits between two labels and another count precedes the label.
// In a header laid out as "181 貼文 10,100 粉絲 914 追蹤中" the number after
// 粉絲 belongs to 追蹤中.
func borrowsNextCount(text string, loc []int) bool {
	if strings.ContainsAny(text[loc[0]:loc[1]], ":：=|") {
		return false
	}
	return precedingCountPattern.MatchString(text[:loc[0]]) &&
		nextLabelAfterCount.MatchString(text[loc[1]:])
}

func group(text string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

// NormalizeUsername lowercases, drops '@' and keeps only [a-z0-9._].
func NormalizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_' {
			b.WriteRune(r)
		}
	}

	username := strings.Trim(b.String(), ".")
	if username == "" {
		return Unknown
	}
	return username
}

func cleanDisplayName(raw string) string {
	if loc := nextLabelPattern.FindStringIndex(raw); loc != nil {
		raw = raw[:loc[0]]
	}
	name := strings.Trim(strings.TrimSpace(raw), `"'「」“”*`)
	name = strings.TrimRight(name, "，,。;；")
	if utf8.RuneCountInString(name) > 60 {
		name = string([]rune(name)[:60])
	}
	return strings.TrimSpace(name)
}

// ProfileFromJSON reads a profile out of a recovered object, looking inside
// "basic_info" first and then at the top level. The bool is false when the
// object names none of the profile fields.
func ProfileFromJSON(obj map[string]any) (Profile, bool) {
	profile := NewProfile()
	if obj == nil {
		return profile, false
	}

	sources := []map[string]any{}
	if nested, ok := obj["basic_info"].(map[string]any); ok {
		sources = append(sources, nested)
	}
	sources = append(sources, obj)

	found := false
	for _, source := range sources {
		if v, ok := source["username"].(string); ok && profile.Username == Unknown {
			profile.Username = NormalizeUsername(v)
			found = true
		}
		for _, key := range []string{"display_name", "name"} {
			if v, ok := source[key].(string); ok && profile.DisplayName == Unknown && strings.TrimSpace(v) != "" {
				profile.DisplayName = strings.TrimSpace(v)
				found = true
			}
		}
		if n, ok := coerceCount(source["followers"]); ok && profile.Followers == 0 {
			profile.Followers = n
			found = true
		}
		if n, ok := coerceCount(source["following"]); ok && profile.Following == 0 {
			profile.Following = n
			found = true
		}
		if n, ok := coerceCount(source["posts"]); ok && profile.Posts == 0 {
			profile.Posts = n
			found = true
		}
	}

	return profile, found
}

func coerceCount(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(math.Round(v)), true
	case json.Number:
		return ParseCount(v.String())
	case string:
		return ParseCount(v)
	case int:
		if v < 0 {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
