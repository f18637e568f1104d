package valuation

import (
	"strconv"
	"strings"
)

// Category tiers accepted by the niche multiplier.
const (
	NicheHigh    = "high"
	NicheMidHigh = "mid_high"
	NicheMid     = "mid"
	NicheLow     = "low"
)

// Attributes are the qualitative scores the model assigns to an account.
// Nil scores are unknown and get the configured defaults at compute time.
type Attributes struct {
	VisualQuality   VisualQuality   `json:"visual_quality"`
	ContentType     ContentType     `json:"content_type"`
	ContentFormat   ContentFormat   `json:"content_format"`
	Professionalism Professionalism `json:"professionalism"`
	PersonalityType PersonalityRef  `json:"personality_type"`
	ImprovementTips []string        `json:"improvement_tips"`

	// Structured is false when no JSON object was recovered at all.
	Structured bool `json:"structured"`
}

type VisualQuality struct {
	Overall *float64 `json:"overall"`
}

type ContentType struct {
	Primary      string `json:"primary,omitempty"`
	CategoryTier string `json:"category_tier,omitempty"`
}

type ContentFormat struct {
	VideoFocus         *float64 `json:"video_focus"`
	PersonalConnection *float64 `json:"personal_connection"`
}

type Professionalism struct {
	HasContact        bool `json:"has_contact"`
	IsBusinessAccount bool `json:"is_business_account"`
}

type PersonalityRef struct {
	PrimaryType string `json:"primary_type"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// Score returns a pointer to v for building Attributes literals.
func Score(v float64) *float64 {
	return &v
}

// AttributesFromJSON reads the qualitative sections of a recovered analysis
// object. A nil object yields unstructured, all-default attributes.
func AttributesFromJSON(obj map[string]any) Attributes {
	attrs := Attributes{Structured: obj != nil}
	if obj == nil {
		return attrs
	}

	visual := asMap(obj["visual_quality"])
	attrs.VisualQuality.Overall = asNumber(visual["overall"])

	content := asMap(obj["content_type"])
	attrs.ContentType.Primary = asString(content["primary"])
	attrs.ContentType.CategoryTier = NormalizeTier(asString(content["category_tier"]))

	format := asMap(obj["content_format"])
	attrs.ContentFormat.VideoFocus = asNumber(format["video_focus"])
	attrs.ContentFormat.PersonalConnection = asNumber(format["personal_connection"])

	professionalism := asMap(obj["professionalism"])
	attrs.Professionalism.HasContact = asBool(professionalism["has_contact"])
	attrs.Professionalism.IsBusinessAccount = asBool(professionalism["is_business_account"])

	personality := asMap(obj["personality_type"])
	attrs.PersonalityType.PrimaryType = strings.TrimSpace(asString(personality["primary_type"]))
	attrs.PersonalityType.Reasoning = asString(personality["reasoning"])

	if tips, ok := obj["improvement_tips"].([]any); ok {
		for _, tip := range tips {
			if s := strings.TrimSpace(asString(tip)); s != "" {
				attrs.ImprovementTips = append(attrs.ImprovementTips, s)
			}
		}
	}

	return attrs
}

// NormalizeTier maps "Mid-High", "mid high" and similar spellings to the
// snake_case tier ids.
func NormalizeTier(tier string) string {
	tier = strings.ToLower(strings.TrimSpace(tier))
	tier = strings.NewReplacer("-", "_", " ", "_").Replace(tier)
	return tier
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNumber(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return &f
		}
	}
	return nil
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "是", "有":
			return true
		}
	}
	return false
}
