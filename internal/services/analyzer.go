package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/metrics"
	"igvalue/ig-value-estimator/internal/models"
	"igvalue/ig-value-estimator/internal/repositories"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

// DisabledText stands in for the model output when every provider failed.
// It reads as prose with no numbers, so the extraction cascades fall through
// to their defaults.
const DisabledText = "[AI_DISABLED] 模型暫時無法使用"

const (
	purposeAnalysis = "analysis"
	purposeOCR      = "ocr"
)

type AnalyzerService interface {
	// AnalyzeJob runs a queued analysis end to end and persists the outcome.
	AnalyzeJob(ctx context.Context, id uuid.UUID) error
	// AnalyzeText runs the extraction and valuation over an existing model
	// response without calling a model.
	AnalyzeText(ctx context.Context, raw string) (*Report, error)
}

type AnalyzerOptions struct {
	Timeout      time.Duration
	MaxRetries   int
	Temperature  float32
	MaxTokens    int32
	MaxPosts     int
	ImageWorkers int
}

type analyzerService struct {
	analysisRepo repositories.AnalysisRepository
	uploadRepo   repositories.UploadRepository
	pipeline     Pipeline
	providers    []VisionProvider
	images       ImageProcessor
	retriever    ReferenceRetriever
	sink         ResponseSink
	prompts      *PromptBuilder
	opts         AnalyzerOptions
	logger       *zap.Logger
}

// NewAnalyzerService wires the job runner. providers are tried in order; the
// first gets opts.MaxRetries extra attempts and the rest one attempt each.
// retriever may be nil.
func NewAnalyzerService(
	analysisRepo repositories.AnalysisRepository,
	uploadRepo repositories.UploadRepository,
	pipeline Pipeline,
	providers []VisionProvider,
	images ImageProcessor,
	retriever ReferenceRetriever,
	sink ResponseSink,
	opts AnalyzerOptions,
	logger *zap.Logger,
) AnalyzerService {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.MaxPosts <= 0 {
		opts.MaxPosts = 6
	}
	return &analyzerService{
		analysisRepo: analysisRepo,
		uploadRepo:   uploadRepo,
		pipeline:     pipeline,
		providers:    providers,
		images:       images,
		retriever:    retriever,
		sink:         sink,
		prompts:      NewPromptBuilder(),
		opts:         opts,
		logger:       logger,
	}
}

func (a *analyzerService) AnalyzeJob(ctx context.Context, id uuid.UUID) error {
	claimed, err := a.analysisRepo.Claim(id)
	if err != nil {
		return err
	}
	if !claimed {
		a.logger.Debug("Analysis already claimed", zap.String("analysis_id", id.String()))
		return nil
	}

	start := time.Now()
	log := a.logger.With(zap.String("analysis_id", id.String()))
	log.Info("Starting analysis")

	analysis, err := a.analysisRepo.FindByID(id)
	if err != nil {
		return a.fail(id, apperrors.CodeStorage, userMessage(err), "", err)
	}

	profileImage, postImages, err := a.loadImages(analysis)
	if err != nil {
		return a.fail(id, apperrors.CodeOf(err), userMessage(err), "", err)
	}

	references := a.references(ctx, analysis.Niche, log)

	req := VisionRequest{
		System:      a.prompts.SystemPrompt(),
		Prompt:      a.prompts.BuildAnalysisPrompt(extractor.NewProfile(), len(postImages), references),
		Images:      append([]EncodedImage{profileImage}, postImages...),
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	}
	raw, provider := a.callModel(ctx, id, purposeAnalysis, req)

	report, err := a.pipeline.Run(raw, extractor.NewProfile())
	if errors.Is(err, apperrors.ErrNoExtractableData) {
		log.Info("No profile counts in analysis response, retrying with OCR prompt")
		ocrRaw, _ := a.callModel(ctx, id, purposeOCR, VisionRequest{
			Prompt:    a.prompts.BuildOCRPrompt(),
			Images:    []EncodedImage{profileImage},
			MaxTokens: 512,
		})
		report, err = a.pipeline.Run(raw, a.pipeline.ReadProfile(ocrRaw))
	}
	if err != nil {
		metrics.AnalysisDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		return a.fail(id, apperrors.CodeOf(err), userMessage(err), raw, err)
	}

	result := &repositories.AnalysisResult{
		Profile:          report.Profile,
		Attributes:       report.Attributes,
		Personality:      report.Personality,
		Valuation:        report.Valuation,
		TextPricing:      report.TextPricing,
		ShortReview:      report.Review,
		ReviewSource:     string(report.ReviewSource),
		Prose:            report.Prose,
		RawResponse:      raw,
		Provider:         provider,
		ExtractionMethod: string(report.Strategy),
		ProfileSource:    report.ProfileSource,
	}
	if err := a.analysisRepo.SaveResult(id, result); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	metrics.AnalysisDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.AnalysesFinished.WithLabelValues(string(models.StatusCompleted), "").Inc()

	log.Info("Analysis completed",
		zap.String("username", report.Profile.Username),
		zap.Int("followers", report.Profile.Followers),
		zap.Int("asset_value", report.Valuation.AssetValue),
		zap.String("provider", provider),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (a *analyzerService) AnalyzeText(_ context.Context, raw string) (*Report, error) {
	if len(raw) == 0 {
		return nil, apperrors.NewValidationError("text is required", "text")
	}
	return a.pipeline.Run(raw, extractor.NewProfile())
}

func (a *analyzerService) loadImages(analysis *models.Analysis) (EncodedImage, []EncodedImage, error) {
	if analysis.ProfileUploadID == nil {
		return EncodedImage{}, nil, apperrors.NewValidationError("profile screenshot is required", "profile_upload_id")
	}

	profileUpload, err := a.uploadRepo.FindByID(*analysis.ProfileUploadID)
	if err != nil {
		return EncodedImage{}, nil, err
	}

	profileImage, err := a.images.EncodeFile(profileUpload.FilePath)
	if err != nil {
		return EncodedImage{}, nil, apperrors.NewValidationError("profile screenshot could not be read", "profile_upload_id").WithCause(err)
	}

	postIDs := analysis.PostUploadIDs
	if len(postIDs) > a.opts.MaxPosts {
		postIDs = postIDs[:a.opts.MaxPosts]
	}
	postUploads, err := a.uploadRepo.FindByIDs(postIDs)
	if err != nil {
		return EncodedImage{}, nil, err
	}

	paths := make([]string, 0, len(postUploads))
	for _, upload := range postUploads {
		paths = append(paths, upload.FilePath)
	}

	return profileImage, a.images.EncodeFiles(paths, a.opts.ImageWorkers), nil
}

func (a *analyzerService) references(ctx context.Context, niche string, log *zap.Logger) string {
	if a.retriever == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	refs, err := a.retriever.Retrieve(ctx, a.prompts.BuildReferenceQuery(niche))
	if err != nil {
		log.Warn("Failed to retrieve pricing references", zap.Error(err))
		return ""
	}
	return refs
}

// callModel tries each provider in turn and never fails: when nothing
// answers it returns DisabledText.
func (a *analyzerService) callModel(ctx context.Context, id uuid.UUID, purpose string, req VisionRequest) (string, string) {
	for i, provider := range a.providers {
		attempts := 1
		if i == 0 {
			attempts += a.opts.MaxRetries
		}

		start := time.Now()
		text, err := a.callWithRetry(ctx, provider, req, attempts)
		if err == nil {
			a.record(ctx, AIRecord{
				AnalysisID: id.String(),
				Provider:   provider.Name(),
				Purpose:    purpose,
				Text:       text,
				DurationMS: time.Since(start).Milliseconds(),
			})
			return text, provider.Name()
		}

		metrics.UpstreamFailures.WithLabelValues(provider.Name()).Inc()
		a.logger.Warn("Vision provider failed",
			zap.String("analysis_id", id.String()),
			zap.String("purpose", purpose),
			zap.Error(apperrors.NewUpstreamUnavailable(provider.Name(), err)),
		)
		a.record(ctx, AIRecord{
			AnalysisID: id.String(),
			Provider:   provider.Name(),
			Purpose:    purpose,
			Error:      err.Error(),
			DurationMS: time.Since(start).Milliseconds(),
		})

		if ctx.Err() != nil {
			break
		}
	}

	a.record(ctx, AIRecord{
		AnalysisID: id.String(),
		Provider:   ProviderNone,
		Purpose:    purpose,
		Text:       DisabledText,
		Disabled:   true,
	})
	return DisabledText, ProviderNone
}

// ProviderNone is recorded when the disabled text was substituted.
const ProviderNone = "none"

func (a *analyzerService) callWithRetry(ctx context.Context, provider VisionProvider, req VisionRequest, attempts int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
		text, err := provider.Analyze(callCtx, req)
		cancel()
		if err == nil {
			return text, nil
		}

		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if attempt < attempts {
			a.logger.Warn("Vision call failed, retrying",
				zap.String("provider", provider.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (a *analyzerService) record(ctx context.Context, record AIRecord) {
	if a.sink == nil {
		return
	}
	record.RecordedAt = time.Now()
	if err := a.sink.Record(ctx, record); err != nil {
		a.logger.Warn("Failed to record model response", zap.Error(err))
	}
}

func (a *analyzerService) fail(id uuid.UUID, code, message, raw string, cause error) error {
	if code == "" {
		code = apperrors.CodeStorage
	}
	metrics.AnalysesFinished.WithLabelValues(string(models.StatusFailed), code).Inc()

	if err := a.analysisRepo.SaveError(id, code, message, raw); err != nil {
		a.logger.Error("Failed to record analysis failure", zap.String("analysis_id", id.String()), zap.Error(err))
	}
	return cause
}

// userMessage is what a failed job shows. Only NO_EXTRACTABLE_DATA carries
// its own guidance; everything else gets a generic line.
func userMessage(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return "分析失敗，請稍後再試。"
	}
	switch appErr.Code {
	case apperrors.CodeNoExtractableData:
		return apperrors.ReuploadHint
	case apperrors.CodeValidation:
		return appErr.Message
	}
	return "分析失敗，請稍後再試。"
}
