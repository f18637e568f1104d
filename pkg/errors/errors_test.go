package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("failed to run pipeline: %w", NewNoExtractableData().WithContext("strategy", "none"))

	assert.ErrorIs(t, err, ErrNoExtractableData)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeNoExtractableData, CodeOf(err))
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
}

func TestInternalConstructors(t *testing.T) {
	cause := stderrors.New("ocr schema: following is required")

	malformed := NewMalformedStructuredData("fenced_block", cause)
	assert.Equal(t, CodeMalformedStructuredData, malformed.Code)
	assert.Equal(t, "fenced_block", malformed.Context["stage"])
	assert.ErrorIs(t, malformed, cause)
	assert.Equal(t, "structured data rejected: ocr schema: following is required", malformed.Error())

	defaulted := NewComputationDefault("visual_quality.overall")
	assert.Equal(t, CodeComputationDefault, defaulted.Code)
	assert.Equal(t, "attribute visual_quality.overall defaulted", defaulted.Error())
	assert.Equal(t, "visual_quality.overall", defaulted.Context["field"])
}

func TestUpstreamUnavailableKeepsProvider(t *testing.T) {
	err := NewUpstreamUnavailable("gemini", stderrors.New("deadline exceeded"))

	appErr, ok := As(fmt.Errorf("wrapped: %w", err))
	assert.True(t, ok)
	assert.Equal(t, "gemini", appErr.Context["provider"])
	assert.Equal(t, 502, appErr.StatusCode)
}
