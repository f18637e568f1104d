package extractor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a required-key contract for a recovered JSON object.
type Schema struct {
	name     string
	required []string
	compiled *gojsonschema.Schema
}

var (
	// AnalysisSchema is what the full analysis prompt asks the model to emit.
	AnalysisSchema = NewSchema("analysis",
		"basic_info",
		"visual_quality",
		"content_type",
		"content_format",
		"professionalism",
		"personality_type",
		"audience_value",
		"improvement_tips",
	)

	// OCRSchema is the lightweight screenshot-reading contract.
	OCRSchema = NewSchema("ocr", "username", "followers", "following", "posts")

	// AnySchema accepts every JSON object.
	AnySchema = NewSchema("any")
)

// NewSchema compiles an object schema requiring the given keys. It panics on
// an invalid definition since schemas are package-level constants.
func NewSchema(name string, required ...string) *Schema {
	definition := map[string]any{"type": "object"}
	if len(required) > 0 {
		definition["required"] = required
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(definition))
	if err != nil {
		panic(fmt.Sprintf("extractor: invalid schema %q: %v", name, err))
	}

	return &Schema{
		name:     name,
		required: required,
		compiled: compiled,
	}
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Required() []string {
	return append([]string(nil), s.required...)
}

// Validate returns nil when obj satisfies the schema.
func (s *Schema) Validate(obj map[string]any) error {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return fmt.Errorf("failed to validate %s schema: %w", s.name, err)
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%s schema: %s", s.name, strings.Join(problems, "; "))
}
