package valuation

import (
	"errors"
	"fmt"
)

// Band prices every follower up to UpTo at Rate NT$ per follower. UpTo of 0
// marks the open-ended top band.
type Band struct {
	UpTo int     `mapstructure:"up_to" json:"up_to"`
	Rate float64 `mapstructure:"rate" json:"rate"`
}

// RatioStep maps followers/following beyond Threshold to Multiplier.
type RatioStep struct {
	Threshold  float64 `mapstructure:"threshold" json:"threshold"`
	Multiplier float64 `mapstructure:"multiplier" json:"multiplier"`
}

// Config holds every tunable constant of the engine.
type Config struct {
	Bands        []Band  `mapstructure:"bands" json:"bands"`
	MinBaseValue float64 `mapstructure:"min_base_value" json:"min_base_value"`

	// Ratio steps are checked in order with strict comparisons: Above steps
	// fire when ratio > Threshold, Below steps when ratio < Threshold.
	RatioAbove []RatioStep `mapstructure:"ratio_above" json:"ratio_above"`
	RatioBelow []RatioStep `mapstructure:"ratio_below" json:"ratio_below"`

	VisualFloor   float64 `mapstructure:"visual_floor" json:"visual_floor"`
	VisualSpan    float64 `mapstructure:"visual_span" json:"visual_span"`
	VisualCeiling float64 `mapstructure:"visual_ceiling" json:"visual_ceiling"`
	DefaultVisual float64 `mapstructure:"default_visual" json:"default_visual"`

	NicheMultipliers  map[string]float64 `mapstructure:"niche_multipliers" json:"niche_multipliers"`
	DefaultNiche      float64            `mapstructure:"default_niche" json:"default_niche"`
	ContactMultiplier float64            `mapstructure:"contact_multiplier" json:"contact_multiplier"`

	ReelsBase            float64 `mapstructure:"reels_base" json:"reels_base"`
	ReelsStep            float64 `mapstructure:"reels_step" json:"reels_step"`
	ReelsPivot           float64 `mapstructure:"reels_pivot" json:"reels_pivot"`
	StoryBase            float64 `mapstructure:"story_base" json:"story_base"`
	StoryStep            float64 `mapstructure:"story_step" json:"story_step"`
	StoryPivot           float64 `mapstructure:"story_pivot" json:"story_pivot"`
	DefaultVideoFocus    float64 `mapstructure:"default_video_focus" json:"default_video_focus"`
	DefaultPersonalConn  float64 `mapstructure:"default_personal_connection" json:"default_personal_connection"`
	MonthlyPosts         int     `mapstructure:"monthly_posts" json:"monthly_posts"`
	MonthlyStories       int     `mapstructure:"monthly_stories" json:"monthly_stories"`
	AssetMonths          int     `mapstructure:"asset_months" json:"asset_months"`
	AssetFloor           float64 `mapstructure:"asset_floor" json:"asset_floor"`
	BaseUncertainty      float64 `mapstructure:"base_uncertainty" json:"base_uncertainty"`
	MinUncertainty       float64 `mapstructure:"min_uncertainty" json:"min_uncertainty"`
	MaxUncertainty       float64 `mapstructure:"max_uncertainty" json:"max_uncertainty"`
	DefaultedUncertainty float64 `mapstructure:"defaulted_uncertainty" json:"defaulted_uncertainty"`
}

func DefaultConfig() Config {
	return Config{
		Bands: []Band{
			{UpTo: 5_000, Rate: 0.60},
			{UpTo: 15_000, Rate: 0.45},
			{UpTo: 80_000, Rate: 0.35},
			{UpTo: 400_000, Rate: 0.25},
			{UpTo: 0, Rate: 0.15},
		},
		MinBaseValue: 200,

		RatioAbove: []RatioStep{
			{Threshold: 50, Multiplier: 1.4},
			{Threshold: 10, Multiplier: 1.2},
		},
		RatioBelow: []RatioStep{
			{Threshold: 0.3, Multiplier: 0.3},
			{Threshold: 0.8, Multiplier: 0.6},
		},

		VisualFloor:   0.7,
		VisualSpan:    1.1,
		VisualCeiling: 1.8,
		DefaultVisual: 5.0,

		NicheMultipliers: map[string]float64{
			NicheHigh:    2.2,
			NicheMidHigh: 1.6,
			NicheMid:     1.2,
			NicheLow:     0.8,
		},
		DefaultNiche:      1.0,
		ContactMultiplier: 1.2,

		ReelsBase:           1.1,
		ReelsStep:           0.12,
		ReelsPivot:          2,
		StoryBase:           0.25,
		StoryStep:           0.04,
		StoryPivot:          3,
		DefaultVideoFocus:   5,
		DefaultPersonalConn: 5,
		MonthlyPosts:        4,
		MonthlyStories:      4,
		AssetMonths:         18,
		AssetFloor:          3_000,

		BaseUncertainty:      0.20,
		MinUncertainty:       0.08,
		MaxUncertainty:       0.40,
		DefaultedUncertainty: 0.05,
	}
}

// Validate checks the structural invariants the engine relies on.
func (c Config) Validate() error {
	if len(c.Bands) == 0 {
		return errors.New("valuation: at least one band is required")
	}

	prevUpTo := 0
	prevRate := c.Bands[0].Rate
	for i, band := range c.Bands {
		if band.Rate < 0 {
			return fmt.Errorf("valuation: band %d has negative rate", i)
		}
		if band.Rate > prevRate {
			return fmt.Errorf("valuation: band %d rate %.2f exceeds previous %.2f", i, band.Rate, prevRate)
		}
		last := i == len(c.Bands)-1
		if band.UpTo == 0 && !last {
			return fmt.Errorf("valuation: only the last band may be open-ended")
		}
		if !last && band.UpTo <= prevUpTo {
			return fmt.Errorf("valuation: band %d upper bound %d is not increasing", i, band.UpTo)
		}
		prevUpTo = band.UpTo
		prevRate = band.Rate
	}

	if c.MinBaseValue < 0 || c.AssetFloor < 0 {
		return errors.New("valuation: floors must be non-negative")
	}
	if c.VisualCeiling < c.VisualFloor {
		return errors.New("valuation: visual_ceiling is below visual_floor")
	}
	if c.MinUncertainty > c.MaxUncertainty {
		return errors.New("valuation: min_uncertainty exceeds max_uncertainty")
	}

	return nil
}
