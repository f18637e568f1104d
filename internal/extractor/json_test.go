package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestJSONExtractorFencedBlock(t *testing.T) {
	text := "```json\n{\"username\":\"a\",\"followers\":1,\"following\":1,\"posts\":1}\n```"

	obj, strategy := NewJSONExtractor(OCRSchema, nil).ExtractWithStrategy(text)

	require.NotNil(t, obj)
	assert.Equal(t, StrategyFencedBlock, strategy)
	assert.Equal(t, map[string]any{
		"username":  "a",
		"followers": float64(1),
		"following": float64(1),
		"posts":     float64(1),
	}, obj)
}

func TestJSONExtractorNoBraces(t *testing.T) {
	for _, schema := range []*Schema{AnySchema, OCRSchema, AnalysisSchema} {
		obj, strategy := NewJSONExtractor(schema, nil).ExtractWithStrategy("plain prose, no braces")
		assert.Nil(t, obj, schema.Name())
		assert.Equal(t, StrategyNone, strategy)
	}
}

func TestJSONExtractorRoundTripAllRequiredKeys(t *testing.T) {
	original := `{
  "basic_info": {"username": "testuser", "followers": 1500, "following": 250, "posts": 35},
  "visual_quality": {"overall": 7.5},
  "content_type": {"primary": "生活風格", "category_tier": "mid"},
  "content_format": {"video_focus": 5, "personal_connection": 6},
  "professionalism": {"has_contact": true},
  "personality_type": {"primary_type": "type_5"},
  "audience_value": {"audience_tier": "一般用戶"},
  "improvement_tips": ["持續分享高品質內容", "提升粉絲互動頻率"]
}`
	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(original), &expected))

	cases := map[string]string{
		"fenced":        "分析如下：\n```json\n" + original + "\n```\n謝謝",
		"bare trailing": "以下是結構化結果\n" + original,
		"bare leading":  original + "\n以上。",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			obj := NewJSONExtractor(AnalysisSchema, nil).Extract(text)
			assert.Equal(t, expected, obj)
		})
	}
}

func TestJSONExtractorBraceScanUsesLastObject(t *testing.T) {
	text := `first {"username":"old"} then {"username":"new","followers":2,"following":3,"posts":4} done`

	obj, strategy := NewJSONExtractor(OCRSchema, nil).ExtractWithStrategy(text)

	require.NotNil(t, obj)
	assert.Equal(t, StrategyBraceScan, strategy)
	assert.Equal(t, "new", obj["username"])
}

func TestJSONExtractorPatternScanPrefersLongestValid(t *testing.T) {
	// The trailing object fails the schema, so the brace scan is rejected and
	// the pattern scan has to pick the valid candidate.
	text := `{"username":"x","followers":10,"following":5,"posts":1,"extra":{"k":1}} trailing {"note":"n/a"}`

	obj, strategy := NewJSONExtractor(OCRSchema, nil).ExtractWithStrategy(text)

	require.NotNil(t, obj)
	assert.Equal(t, StrategyPatternScan, strategy)
	assert.Equal(t, "x", obj["username"])
}

func TestJSONExtractorBraceInsideStringDefeatsBraceScan(t *testing.T) {
	text := `{"username":"a}b","followers":1,"following":1,"posts":1}`

	obj, strategy := NewJSONExtractor(OCRSchema, nil).ExtractWithStrategy(text)

	// The backward scan pairs the wrong braces; the pattern scan cannot see
	// past the embedded '}' either, so nothing valid is recovered.
	assert.Nil(t, obj)
	assert.Equal(t, StrategyNone, strategy)
}

func TestJSONExtractorStripsLineComments(t *testing.T) {
	text := "```json\n{\n  \"username\": \"a\", // handle\n  \"followers\": 1200, // approx\n  \"following\": 30,\n  \"posts\": 9,\n  \"link\": \"https://instagram.com/a\"\n}\n```"

	obj := NewJSONExtractor(OCRSchema, nil).Extract(text)

	require.NotNil(t, obj)
	assert.Equal(t, float64(1200), obj["followers"])
	assert.Equal(t, "https://instagram.com/a", obj["link"])
}

func TestJSONExtractorRejectsIncompleteSchema(t *testing.T) {
	text := "```json\n{\"username\":\"a\",\"followers\":1}\n```"

	assert.Nil(t, NewJSONExtractor(OCRSchema, nil).Extract(text))
	assert.NotNil(t, NewJSONExtractor(AnySchema, nil).Extract(text))
}

func TestJSONExtractorLogsRejectedCandidates(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	text := "```json\n{\"username\":\"a\",\"followers\":1}\n```"

	assert.Nil(t, NewJSONExtractor(OCRSchema, zap.New(core)).Extract(text))

	rejected := logs.FilterMessage("Candidate rejected by schema").All()
	require.NotEmpty(t, rejected)
	fields := rejected[0].ContextMap()
	assert.Equal(t, string(StrategyFencedBlock), fields["stage"])
	assert.Contains(t, fields["error"], "structured data rejected")
	assert.Contains(t, fields["error"], "following")
}

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, OCRSchema.Validate(map[string]any{
		"username": "a", "followers": 1, "following": 2, "posts": 3,
	}))
	err := OCRSchema.Validate(map[string]any{"username": "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "followers")
	assert.Len(t, AnalysisSchema.Required(), 8)
}
