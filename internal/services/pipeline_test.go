package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/review"
	"igvalue/ig-value-estimator/internal/valuation"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

const sampleAnalysisText = "\n毒舌短評：這是一段測試短評\n```json\n" +
	`{"basic_info": {"username": "testuser", "display_name": "Test User", "followers": 1500, "following": 250, "posts": 35},` +
	` "visual_quality": {"overall": 7.5, "consistency": 6.0},` +
	` "content_type": {"primary": "生活風格", "category_tier": "mid"},` +
	` "content_format": {"video_focus": 5, "personal_connection": 6},` +
	` "professionalism": {"has_contact": true, "is_business_account": false},` +
	` "personality_type": {"primary_type": "type_5", "reasoning": "測試理由"},` +
	` "improvement_tips": ["持續分享高品質內容", "提升粉絲互動頻率"]}` +
	"\n```\n"

func newTestPipeline() Pipeline {
	return NewPipeline(
		valuation.NewEngine(valuation.DefaultConfig()),
		review.NewSynthesizer(0, nil),
		zap.NewNop(),
	)
}

func TestPipelineRunSampleResponse(t *testing.T) {
	report, err := newTestPipeline().Run(sampleAnalysisText, extractor.NewProfile())
	require.NoError(t, err)

	assert.Equal(t, "testuser", report.Profile.Username)
	assert.Equal(t, "Test User", report.Profile.DisplayName)
	assert.Equal(t, 1500, report.Profile.Followers)
	assert.Equal(t, 250, report.Profile.Following)
	assert.Equal(t, 35, report.Profile.Posts)
	assert.Equal(t, ProfileSourceJSON, report.ProfileSource)

	// Seven of the eight analysis keys: only the lenient pass accepts it.
	assert.Equal(t, "any", report.Schema)
	assert.Equal(t, extractor.StrategyFencedBlock, report.Strategy)

	assert.Equal(t, "這是一段測試短評。", report.Review)
	assert.Equal(t, review.SourceMarker, report.ReviewSource)

	assert.True(t, report.Attributes.Structured)
	assert.Equal(t, "type_5", report.Personality.ID)
	assert.Equal(t, []string{"持續分享高品質內容", "提升粉絲互動頻率"}, report.Attributes.ImprovementTips)

	assert.Equal(t, 1.2, report.Valuation.Multipliers[valuation.MultiplierNiche])
	assert.Equal(t, 1.2, report.Valuation.Multipliers[valuation.MultiplierCommercial])
	assert.Equal(t, 1.0, report.Valuation.Multipliers[valuation.MultiplierRatio])
	assert.Equal(t, 900, report.Valuation.BasePrice)
	assert.Equal(t, 1976, report.Valuation.PostValue)
}

func TestPipelineRunFreeTextOnly(t *testing.T) {
	report, err := newTestPipeline().Run("粉絲數: 10,100 追蹤數: 914 貼文數: 181 用戶名: dannytjkan", extractor.NewProfile())
	require.NoError(t, err)

	assert.Equal(t, "dannytjkan", report.Profile.Username)
	assert.Equal(t, 10100, report.Profile.Followers)
	assert.Equal(t, ProfileSourceFreeText, report.ProfileSource)
	assert.Equal(t, extractor.StrategyNone, report.Strategy)
	assert.False(t, report.Attributes.Structured)
	assert.Equal(t, valuation.DefaultPersonalityID, report.Personality.ID)
	assert.NotEmpty(t, report.Valuation.Defaulted)
	assert.Equal(t, review.SourceTemplate, report.ReviewSource)
}

func TestPipelineLogsDefaultedAttributes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPipeline(valuation.NewEngine(valuation.DefaultConfig()), review.NewSynthesizer(0, nil), zap.New(core))

	report, err := p.Run("粉絲數: 1,200 追蹤數: 300", extractor.NewProfile())
	require.NoError(t, err)

	entries := logs.FilterMessage("Valuation used default").All()
	require.Len(t, entries, len(report.Valuation.Defaulted))

	var messages []string
	for _, entry := range entries {
		messages = append(messages, entry.ContextMap()["error"].(string))
	}
	assert.Contains(t, messages, "attribute visual_quality.overall defaulted")
}

func TestPipelineRunNoExtractableData(t *testing.T) {
	report, err := newTestPipeline().Run("The feed looks lovely and the colours are warm.", extractor.NewProfile())

	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoExtractableData)
	assert.Equal(t, apperrors.CodeNoExtractableData, apperrors.CodeOf(err))
}

func TestPipelineRunUsesHint(t *testing.T) {
	hint := extractor.NewProfile()
	hint.Username = "hinted"
	hint.Followers = 1200
	hint.Following = 300

	report, err := newTestPipeline().Run("The feed looks lovely and the colours are warm.", hint)
	require.NoError(t, err)

	assert.Equal(t, "hinted", report.Profile.Username)
	assert.Equal(t, 1200, report.Profile.Followers)
	assert.Equal(t, ProfileSourceHint, report.ProfileSource)
}

func TestPipelineReadProfileFromOCRObject(t *testing.T) {
	raw := "好的，以下是截圖資訊：\n```json\n" +
		`{"username": "@Foo.Bar", "followers": "10.1K", "following": 914, "posts": 181}` +
		"\n```"

	profile := newTestPipeline().ReadProfile(raw)

	assert.Equal(t, "foo.bar", profile.Username)
	assert.Equal(t, 10100, profile.Followers)
	assert.Equal(t, 914, profile.Following)
	assert.Equal(t, 181, profile.Posts)
}
