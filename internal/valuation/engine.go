// Package valuation prices an Instagram account from its follower counts
// and the qualitative attributes a vision model assigned to it. Everything
// here is deterministic and free of I/O.
package valuation

import (
	"math"
)

// Multiplier keys in Result.Multipliers.
const (
	MultiplierRatio      = "ratio"
	MultiplierVisual     = "visual"
	MultiplierNiche      = "niche"
	MultiplierCommercial = "commercial"
	MultiplierTotal      = "total"
	MultiplierReels      = "reels"
	MultiplierStory      = "story"
)

// Result is the full valuation of one account. Monetary fields are NT$.
type Result struct {
	BasePrice      int                `json:"base_price"`
	Multipliers    map[string]float64 `json:"multipliers"`
	PostValue      int                `json:"post_value"`
	StoryValue     int                `json:"story_value"`
	ReelsValue     int                `json:"reels_value"`
	MonthlyRevenue int                `json:"monthly_revenue"`
	AssetValue     int                `json:"asset_value"`

	PostValueLow  int     `json:"post_value_low"`
	PostValueHigh int     `json:"post_value_high"`
	Uncertainty   float64 `json:"uncertainty"`

	FollowerTier    Tier `json:"follower_tier"`
	FollowerQuality Tier `json:"follower_quality"`

	// Defaulted lists attribute paths that were missing or out of range.
	Defaulted []string `json:"defaulted,omitempty"`
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Compute prices an account. Negative counts are treated as zero.
func (e *Engine) Compute(followers, following int, attrs Attributes) Result {
	followers = max(followers, 0)
	following = max(following, 0)

	var defaulted []string
	resolve := func(path string, score *float64, fallback float64) float64 {
		if score == nil || math.IsNaN(*score) || *score < 0 || *score > 10 {
			defaulted = append(defaulted, path)
			return fallback
		}
		return *score
	}

	overall := resolve("visual_quality.overall", attrs.VisualQuality.Overall, e.cfg.DefaultVisual)
	videoFocus := resolve("content_format.video_focus", attrs.ContentFormat.VideoFocus, e.cfg.DefaultVideoFocus)
	personal := resolve("content_format.personal_connection", attrs.ContentFormat.PersonalConnection, e.cfg.DefaultPersonalConn)

	niche, known := e.NicheMultiplier(attrs.ContentType.CategoryTier)
	if !known {
		defaulted = append(defaulted, "content_type.category_tier")
	}

	base := e.BaseValue(followers)
	ratio := e.RatioMultiplier(followers, following)
	visual := e.VisualMultiplier(overall)
	commercial := 1.0
	if attrs.Professionalism.HasContact {
		commercial = e.cfg.ContactMultiplier
	}

	total := ratio * visual * niche * commercial
	post := math.Round(base * total)

	reelsMult := e.cfg.ReelsBase + math.Max(0, videoFocus-e.cfg.ReelsPivot)*e.cfg.ReelsStep
	storyMult := e.cfg.StoryBase + math.Max(0, personal-e.cfg.StoryPivot)*e.cfg.StoryStep
	reels := math.Round(post * reelsMult)
	story := math.Round(post * storyMult)

	// Revenue compounds the unrounded story price; only the reported prices are rounded.
	monthly := float64(e.cfg.MonthlyPosts)*post + float64(e.cfg.MonthlyStories)*post*storyMult
	asset := math.Max(monthly*float64(e.cfg.AssetMonths), e.cfg.AssetFloor)

	uncertainty := e.uncertainty(overall, ratio, attrs.Structured)

	return Result{
		BasePrice: int(base),
		Multipliers: map[string]float64{
			MultiplierRatio:      round4(ratio),
			MultiplierVisual:     round4(visual),
			MultiplierNiche:      round4(niche),
			MultiplierCommercial: round4(commercial),
			MultiplierTotal:      round4(total),
			MultiplierReels:      round4(reelsMult),
			MultiplierStory:      round4(storyMult),
		},
		PostValue:       int(post),
		StoryValue:      int(story),
		ReelsValue:      int(reels),
		MonthlyRevenue:  int(math.Round(monthly)),
		AssetValue:      int(math.Round(asset)),
		PostValueLow:    int(math.Round(post * (1 - uncertainty))),
		PostValueHigh:   int(math.Round(post * (1 + uncertainty))),
		Uncertainty:     round4(uncertainty),
		FollowerTier:    FollowerTier(followers),
		FollowerQuality: FollowerQuality(followers, following),
		Defaulted:       defaulted,
	}
}

// BaseValue sums the marginal band rates across every follower, then applies
// the minimum.
func (e *Engine) BaseValue(followers int) float64 {
	remaining := max(followers, 0)
	lower := 0
	total := 0.0

	for _, band := range e.cfg.Bands {
		if remaining <= 0 {
			break
		}

		width := remaining
		if band.UpTo > 0 {
			width = min(band.UpTo-lower, remaining)
		}

		total += float64(width) * band.Rate
		remaining -= width
		lower = band.UpTo
	}

	return math.Max(math.Round(total), e.cfg.MinBaseValue)
}

// RatioMultiplier maps followers/following through the configured steps.
// Every comparison is strict, so a ratio sitting exactly on a threshold gets
// the multiplier of the band nearer to 1.0. The "below" steps are checked
// tightest first.
func (e *Engine) RatioMultiplier(followers, following int) float64 {
	ratio := float64(max(followers, 0)) / float64(max(following, 1))

	for _, step := range e.cfg.RatioAbove {
		if ratio > step.Threshold {
			return step.Multiplier
		}
	}
	for _, step := range e.cfg.RatioBelow {
		if ratio < step.Threshold {
			return step.Multiplier
		}
	}
	return 1.0
}

// VisualMultiplier maps a 0-10 visual score linearly onto
// [VisualFloor, VisualCeiling].
func (e *Engine) VisualMultiplier(overall float64) float64 {
	mult := e.cfg.VisualFloor + (overall/10)*e.cfg.VisualSpan
	return math.Min(math.Max(mult, e.cfg.VisualFloor), e.cfg.VisualCeiling)
}

// NicheMultiplier looks a category tier up; unknown tiers report false and
// get DefaultNiche.
func (e *Engine) NicheMultiplier(tier string) (float64, bool) {
	if mult, ok := e.cfg.NicheMultipliers[NormalizeTier(tier)]; ok {
		return mult, true
	}
	return e.cfg.DefaultNiche, false
}

func (e *Engine) uncertainty(overall, ratio float64, structured bool) float64 {
	u := e.cfg.BaseUncertainty
	switch {
	case overall >= 8:
		u -= 0.03
	case overall < 5:
		u += 0.05
	}
	if ratio < 1 {
		u += 0.04
	}
	if !structured {
		u += e.cfg.DefaultedUncertainty
	}
	return math.Min(math.Max(u, e.cfg.MinUncertainty), e.cfg.MaxUncertainty)
}

func round4(v float64) float64 {
	return math.Round(v*10_000) / 10_000
}
