package extractor

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

// Strategy names the cascade stage that produced an object.
type Strategy string

const (
	StrategyFencedBlock Strategy = "fenced_block"
	StrategyBraceScan   Strategy = "brace_scan"
	StrategyPatternScan Strategy = "pattern_scan"
	StrategyNone        Strategy = "none"
)

var (
	fencedJSONPattern   = regexp.MustCompile("(?is)```json\\s*(\\{.*?\\})\\s*```")
	nestedObjectPattern = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
	lineCommentPattern  = regexp.MustCompile(`(?m)(^|[\s,\[{])//[^\n]*`)
)

// JSONExtractor finds the first JSON object in model output that satisfies
// its schema. The stages run in order: a ```json fenced block, a backward
// brace scan from the last '}', then every one-level-nested object in the
// text, longest first.
type JSONExtractor struct {
	schema *Schema
	logger *zap.Logger
}

func NewJSONExtractor(schema *Schema, logger *zap.Logger) *JSONExtractor {
	if schema == nil {
		schema = AnySchema
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &JSONExtractor{
		schema: schema,
		logger: logger,
	}
}

func (e *JSONExtractor) Schema() *Schema {
	return e.schema
}

// Extract returns the recovered object, or nil.
func (e *JSONExtractor) Extract(text string) map[string]any {
	obj, _ := e.ExtractWithStrategy(text)
	return obj
}

// ExtractWithStrategy is Extract plus the stage that succeeded.
func (e *JSONExtractor) ExtractWithStrategy(text string) (map[string]any, Strategy) {
	if match := fencedJSONPattern.FindStringSubmatch(text); match != nil {
		if obj, ok := e.accept(match[1], StrategyFencedBlock); ok {
			return obj, StrategyFencedBlock
		}
	}

	if candidate, ok := lastBalancedObject(text); ok {
		if obj, ok := e.accept(candidate, StrategyBraceScan); ok {
			return obj, StrategyBraceScan
		}
	}

	candidates := nestedObjectPattern.FindAllString(text, -1)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	for _, candidate := range candidates {
		if obj, ok := e.accept(candidate, StrategyPatternScan); ok {
			return obj, StrategyPatternScan
		}
	}

	e.logger.Debug("No JSON object satisfied schema",
		zap.String("schema", e.schema.Name()),
		zap.Int("candidates", len(candidates)),
	)
	return nil, StrategyNone
}

func (e *JSONExtractor) accept(candidate string, stage Strategy) (map[string]any, bool) {
	obj, err := parseObject(candidate)
	if err != nil {
		e.logger.Debug("Candidate is not valid JSON",
			zap.String("stage", string(stage)),
			zap.Int("length", len(candidate)),
			zap.Error(apperrors.NewMalformedStructuredData(string(stage), err)),
		)
		return nil, false
	}

	if err := e.schema.Validate(obj); err != nil {
		e.logger.Debug("Candidate rejected by schema",
			zap.String("stage", string(stage)),
			zap.Error(apperrors.NewMalformedStructuredData(string(stage), err)),
		)
		return nil, false
	}

	return obj, true
}

// parseObject decodes candidate, retrying once with // line comments removed.
func parseObject(candidate string) (map[string]any, error) {
	obj, err := decodeObject(candidate)
	if err == nil {
		return obj, nil
	}

	stripped := StripLineComments(candidate)
	if stripped == candidate {
		return nil, err
	}
	return decodeObject(stripped)
}

func decodeObject(candidate string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("candidate is not an object")
	}
	return obj, nil
}

// StripLineComments drops // comments that start a line or follow
// whitespace or a JSON delimiter. "https://" survives because ':' precedes it.
func StripLineComments(text string) string {
	return lineCommentPattern.ReplaceAllString(text, "$1")
}

// lastBalancedObject walks back from the final '}' counting braces until the
// depth returns to zero. Braces inside string literals are counted as well,
// so an unmatched brace in a value defeats this stage and the pattern scan
// runs instead.
func lastBalancedObject(text string) (string, bool) {
	end := strings.LastIndexByte(text, '}')
	if end < 0 {
		return "", false
	}

	depth := 0
	for i := end; i >= 0; i-- {
		switch text[i] {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				return text[i : end+1], true
			}
		}
	}

	return "", false
}
