//go:build ignore

// Command reparse_responses re-runs extraction and valuation over stored raw
// model responses, e.g. after a parser fix or a valuation config change.
// Without -apply it only reports what would change.
//
//	go run scripts/reparse_responses.go -limit 500 -apply
package main

import (
	"flag"

	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/config"
	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/logger"
	"igvalue/ig-value-estimator/internal/repositories"
	"igvalue/ig-value-estimator/internal/review"
	"igvalue/ig-value-estimator/internal/services"
	"igvalue/ig-value-estimator/internal/valuation"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

func main() {
	limit := flag.Int("limit", 1000, "maximum number of analyses to reparse")
	apply := flag.Bool("apply", false, "write the new results back")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Logging.Level, "")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	valuationCfg, err := config.LoadValuation(cfg.Valuation.ConfigPath)
	if err != nil {
		log.Fatal("Failed to load valuation config", zap.Error(err))
	}

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	analysisRepo := repositories.NewAnalysisRepository(db)

	pipeline := services.NewPipeline(
		valuation.NewEngine(valuationCfg),
		review.NewSynthesizer(cfg.Valuation.ReviewMaxRunes, log),
		log,
	)

	analyses, err := analysisRepo.FindReparseable(*limit)
	if err != nil {
		log.Fatal("Failed to load analyses", zap.Error(err))
	}

	var changed, unreadable int
	for _, analysis := range analyses {
		// Stored OCR-derived counts stand in for the follow-up call.
		hint := extractor.Profile{
			Username:    analysis.Username,
			DisplayName: analysis.DisplayName,
			Followers:   analysis.Followers,
			Following:   analysis.Following,
			Posts:       analysis.Posts,
		}
		report, err := pipeline.Run(analysis.RawResponse, hint)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeNoExtractableData {
				unreadable++
				continue
			}
			log.Error("Reparse failed", zap.String("analysis_id", analysis.ID.String()), zap.Error(err))
			continue
		}

		if analysis.AssetValue == report.Valuation.AssetValue && analysis.ShortReview == report.Review {
			continue
		}
		changed++
		log.Info("Result changed",
			zap.String("analysis_id", analysis.ID.String()),
			zap.String("username", report.Profile.Username),
			zap.Int("asset_value_before", analysis.AssetValue),
			zap.Int("asset_value_after", report.Valuation.AssetValue),
			zap.String("review_after", report.Review),
		)

		if !*apply {
			continue
		}
		err = analysisRepo.SaveResult(analysis.ID, &repositories.AnalysisResult{
			Profile:          report.Profile,
			Attributes:       report.Attributes,
			Personality:      report.Personality,
			Valuation:        report.Valuation,
			TextPricing:      report.TextPricing,
			ShortReview:      report.Review,
			ReviewSource:     string(report.ReviewSource),
			Prose:            report.Prose,
			RawResponse:      analysis.RawResponse,
			Provider:         analysis.Provider,
			ExtractionMethod: string(report.Strategy),
			ProfileSource:    report.ProfileSource,
		})
		if err != nil {
			log.Error("Failed to save reparsed result", zap.String("analysis_id", analysis.ID.String()), zap.Error(err))
		}
	}

	log.Info("Reparse finished",
		zap.Int("scanned", len(analyses)),
		zap.Int("changed", changed),
		zap.Int("unreadable", unreadable),
		zap.Bool("applied", *apply),
	)
}
