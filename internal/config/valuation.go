package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"igvalue/ig-value-estimator/internal/valuation"
)

// LoadValuation builds the engine tunables: built-in defaults, then the YAML
// file at path (optional), then VALUATION_* environment variables.
func LoadValuation(path string) (valuation.Config, error) {
	v := viper.New()

	defaults := valuation.DefaultConfig()
	v.SetDefault("bands", defaults.Bands)
	v.SetDefault("min_base_value", defaults.MinBaseValue)
	v.SetDefault("ratio_above", defaults.RatioAbove)
	v.SetDefault("ratio_below", defaults.RatioBelow)
	v.SetDefault("visual_floor", defaults.VisualFloor)
	v.SetDefault("visual_span", defaults.VisualSpan)
	v.SetDefault("visual_ceiling", defaults.VisualCeiling)
	v.SetDefault("default_visual", defaults.DefaultVisual)
	v.SetDefault("niche_multipliers", defaults.NicheMultipliers)
	v.SetDefault("default_niche", defaults.DefaultNiche)
	v.SetDefault("contact_multiplier", defaults.ContactMultiplier)
	v.SetDefault("reels_base", defaults.ReelsBase)
	v.SetDefault("reels_step", defaults.ReelsStep)
	v.SetDefault("reels_pivot", defaults.ReelsPivot)
	v.SetDefault("story_base", defaults.StoryBase)
	v.SetDefault("story_step", defaults.StoryStep)
	v.SetDefault("story_pivot", defaults.StoryPivot)
	v.SetDefault("default_video_focus", defaults.DefaultVideoFocus)
	v.SetDefault("default_personal_connection", defaults.DefaultPersonalConn)
	v.SetDefault("monthly_posts", defaults.MonthlyPosts)
	v.SetDefault("monthly_stories", defaults.MonthlyStories)
	v.SetDefault("asset_months", defaults.AssetMonths)
	v.SetDefault("asset_floor", defaults.AssetFloor)
	v.SetDefault("base_uncertainty", defaults.BaseUncertainty)
	v.SetDefault("min_uncertainty", defaults.MinUncertainty)
	v.SetDefault("max_uncertainty", defaults.MaxUncertainty)
	v.SetDefault("defaulted_uncertainty", defaults.DefaultedUncertainty)

	v.SetEnvPrefix("VALUATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return valuation.Config{}, fmt.Errorf("failed to read valuation config %s: %w", path, err)
		}
	}

	var cfg valuation.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return valuation.Config{}, fmt.Errorf("failed to decode valuation config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return valuation.Config{}, err
	}

	return cfg, nil
}
