package services

import (
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/metrics"
	"igvalue/ig-value-estimator/internal/review"
	"igvalue/ig-value-estimator/internal/valuation"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

// Profile sources, in resolution order.
const (
	ProfileSourceJSON     = "json"
	ProfileSourceOCR      = "ocr"
	ProfileSourceFreeText = "free_text"
	ProfileSourceHint     = "hint"
	ProfileSourceNone     = "none"
)

// Report is everything derived from one model response.
type Report struct {
	Profile     extractor.Profile         `json:"profile"`
	Attributes  valuation.Attributes      `json:"attributes"`
	Personality valuation.PersonalityType `json:"personality"`
	Valuation   valuation.Result          `json:"valuation"`
	Review      string                    `json:"review"`
	TextPricing extractor.TextPricing     `json:"text_pricing"`
	Prose       string                    `json:"prose,omitempty"`

	Schema        string             `json:"schema"`
	Strategy      extractor.Strategy `json:"strategy"`
	ProfileSource string             `json:"profile_source"`
	ReviewSource  review.Source      `json:"review_source"`
}

type Pipeline interface {
	// Run turns a raw model response into a report. hint fills profile
	// fields nothing in raw resolved, typically from a follow-up OCR call.
	// The only error is NO_EXTRACTABLE_DATA.
	Run(raw string, hint extractor.Profile) (*Report, error)
	// ReadProfile resolves just the basic profile from raw.
	ReadProfile(raw string) extractor.Profile
}

type pipeline struct {
	analysis    *extractor.JSONExtractor
	lenient     *extractor.JSONExtractor
	ocr         *extractor.JSONExtractor
	engine      *valuation.Engine
	synthesizer *review.Synthesizer
	logger      *zap.Logger
}

func NewPipeline(engine *valuation.Engine, synthesizer *review.Synthesizer, logger *zap.Logger) Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pipeline{
		analysis:    extractor.NewJSONExtractor(extractor.AnalysisSchema, logger),
		lenient:     extractor.NewJSONExtractor(extractor.AnySchema, logger),
		ocr:         extractor.NewJSONExtractor(extractor.OCRSchema, logger),
		engine:      engine,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Run implements Pipeline.
func (p *pipeline) Run(raw string, hint extractor.Profile) (*Report, error) {
	text := extractor.Normalize(raw)

	obj, strategy := p.analysis.ExtractWithStrategy(text)
	schema := p.analysis.Schema().Name()
	if obj == nil {
		obj, strategy = p.lenient.ExtractWithStrategy(text)
		schema = p.lenient.Schema().Name()
	}
	metrics.ExtractionOutcomes.WithLabelValues(schema, string(strategy)).Inc()

	profile, source := p.resolveProfile(text, obj)
	if hint.HasCounts() || hint.Username != extractor.Unknown {
		before := profile.HasCounts()
		profile = profile.Merge(hint)
		if !before && profile.HasCounts() {
			source = ProfileSourceHint
		}
	}
	metrics.ProfileSources.WithLabelValues(source).Inc()

	if !profile.HasCounts() {
		p.logger.Warn("No profile counts recovered",
			zap.String("schema", schema),
			zap.String("strategy", string(strategy)),
			zap.Int("raw_length", len(raw)),
		)
		return nil, apperrors.NewNoExtractableData().WithContext("strategy", string(strategy))
	}

	attrs := valuation.AttributesFromJSON(obj)
	personality, ok := valuation.LookupPersonality(attrs.PersonalityType.PrimaryType)
	if !ok {
		personality, _ = valuation.LookupPersonality(valuation.DefaultPersonalityID)
	}

	report := &Report{
		Profile:       profile,
		Attributes:    attrs,
		Personality:   personality,
		Prose:         extractor.AnalysisProse(text),
		Schema:        schema,
		Strategy:      strategy,
		ProfileSource: source,
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		report.Valuation = p.engine.Compute(profile.Followers, profile.Following, attrs)
		report.TextPricing = extractor.ExtractPricing(report.Prose)
	})
	wg.Go(func() {
		report.Review, report.ReviewSource = p.synthesizer.SynthesizeWithSource(raw, profile)
	})
	wg.Wait()

	metrics.ReviewSources.WithLabelValues(string(report.ReviewSource)).Inc()
	metrics.AssetValues.Observe(float64(report.Valuation.AssetValue))

	for _, field := range report.Valuation.Defaulted {
		p.logger.Debug("Valuation used default",
			zap.String("username", profile.Username),
			zap.Error(apperrors.NewComputationDefault(field)),
		)
	}

	return report, nil
}

// ReadProfile implements Pipeline.
func (p *pipeline) ReadProfile(raw string) extractor.Profile {
	text := extractor.Normalize(raw)
	obj := p.lenient.Extract(text)
	profile, _ := p.resolveProfile(text, obj)
	return profile
}

// resolveProfile merges the analysis object, an OCR-shaped object and the
// free-text labels, earliest source winning per field.
func (p *pipeline) resolveProfile(text string, obj map[string]any) (extractor.Profile, string) {
	profile := extractor.NewProfile()
	source := ProfileSourceNone

	merge := func(next extractor.Profile, name string) {
		hadCounts := profile.HasCounts()
		profile = profile.Merge(next)
		if !hadCounts && profile.HasCounts() {
			source = name
		}
	}

	if found, ok := extractor.ProfileFromJSON(obj); ok {
		merge(found, ProfileSourceJSON)
	}
	if ocr := p.ocr.Extract(text); ocr != nil {
		if found, ok := extractor.ProfileFromJSON(ocr); ok {
			merge(found, ProfileSourceOCR)
		}
	}
	merge(extractor.ExtractBasicInfo(text), ProfileSourceFreeText)

	return profile, source
}
