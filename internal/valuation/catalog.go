package valuation

// Tier is a labelled bucket; ID is the wire identifier.
type Tier struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var followerTiers = []struct {
	min  int
	tier Tier
}{
	{100_000, Tier{"celebrity", "名人級"}},
	{50_000, Tier{"influencer", "網紅級"}},
	{10_000, Tier{"kol", "意見領袖"}},
	{5_000, Tier{"micro", "微網紅"}},
	{1_000, Tier{"potential", "潛力股"}},
	{500, Tier{"rising", "新星"}},
	{0, Tier{"starter", "素人"}},
}

// FollowerTier buckets an account by audience size.
func FollowerTier(followers int) Tier {
	for _, t := range followerTiers {
		if followers >= t.min {
			return t.tier
		}
	}
	return followerTiers[len(followerTiers)-1].tier
}

// FollowerQuality labels the followers/following ratio. Unlike the pricing
// multiplier these labels use inclusive lower bounds.
func FollowerQuality(followers, following int) Tier {
	if following <= 0 {
		return Tier{"standard", "標準"}
	}

	ratio := float64(followers) / float64(following)
	switch {
	case ratio >= 3.0:
		return Tier{"high_impact", "高影響力"}
	case ratio >= 1.5:
		return Tier{"attractive", "有吸引力"}
	case ratio >= 1.0:
		return Tier{"standard", "標準"}
	case ratio >= 0.5:
		return Tier{"growing", "需成長"}
	default:
		return Tier{"building", "待建立"}
	}
}

// PersonalityType is one of the twelve fixed creator archetypes.
type PersonalityType struct {
	ID     string `json:"id"`
	NameZH string `json:"name_zh"`
	NameEN string `json:"name_en"`
	Emoji  string `json:"emoji"`
}

const DefaultPersonalityID = "type_5"

var personalityTypes = []PersonalityType{
	{"type_1", "夢幻柔焦系", "Dreamy Aesthetic", "🌸"},
	{"type_2", "藝術實驗者", "Artistic Experimenter", "🎨"},
	{"type_3", "戶外探險家", "Outdoor Adventurer", "🏔️"},
	{"type_4", "知識策展人", "Knowledge Curator", "📚"},
	{"type_5", "生活記錄者", "Everyday Chronicler", "🍜"},
	{"type_6", "質感品味家", "Refined Aesthete", "✨"},
	{"type_7", "幽默創作者", "Humor Creator", "🎭"},
	{"type_8", "專業形象派", "Professional Persona", "💼"},
	{"type_9", "永續生活者", "Sustainable Liver", "🌿"},
	{"type_10", "次文化愛好者", "Subculture Enthusiast", "🎮"},
	{"type_11", "健康積極派", "Fitness Motivator", "💪"},
	{"type_12", "靈性探索者", "Spiritual Seeker", "🔮"},
}

// LookupPersonality resolves an id, falling back to the everyday chronicler.
func LookupPersonality(id string) (PersonalityType, bool) {
	for _, p := range personalityTypes {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range personalityTypes {
		if p.ID == DefaultPersonalityID {
			return p, false
		}
	}
	return PersonalityType{}, false
}

func PersonalityTypes() []PersonalityType {
	return append([]PersonalityType(nil), personalityTypes...)
}
