package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/models"
	"igvalue/ig-value-estimator/internal/valuation"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

type AnalysisRepository interface {
	Create(analysis *models.Analysis) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	// Claim moves a queued analysis to processing. It returns false when
	// another worker got there first.
	Claim(id uuid.UUID) (bool, error)
	SaveResult(id uuid.UUID, result *AnalysisResult) error
	SaveError(id uuid.UUID, code, message, rawResponse string) error
	FindPendingJobs(limit int) ([]models.Analysis, error)
	FindLatestByUsername(username string) (*models.Analysis, error)
	// FindReparseable returns finished analyses that kept a raw model
	// response, oldest first.
	FindReparseable(limit int) ([]models.Analysis, error)
}

// AnalysisResult is the composed record written when a job completes.
type AnalysisResult struct {
	Profile          extractor.Profile
	Attributes       valuation.Attributes
	Personality      valuation.PersonalityType
	Valuation        valuation.Result
	TextPricing      extractor.TextPricing
	ShortReview      string
	ReviewSource     string
	Prose            string
	RawResponse      string
	Provider         string
	ExtractionMethod string
	ProfileSource    string
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("analysis", err)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

func (r *analysisRepository) Claim(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *analysisRepository) SaveResult(id uuid.UUID, data *AnalysisResult) error {
	now := time.Now()
	row := models.Analysis{
		Status:           models.StatusCompleted,
		Username:         data.Profile.Username,
		DisplayName:      data.Profile.DisplayName,
		Followers:        data.Profile.Followers,
		Following:        data.Profile.Following,
		Posts:            data.Profile.Posts,
		Attributes:       &data.Attributes,
		Personality:      &data.Personality,
		Valuation:        &data.Valuation,
		TextPricing:      &data.TextPricing,
		AssetValue:       data.Valuation.AssetValue,
		ShortReview:      data.ShortReview,
		ReviewSource:     data.ReviewSource,
		Prose:            data.Prose,
		RawResponse:      data.RawResponse,
		Provider:         data.Provider,
		ExtractionMethod: data.ExtractionMethod,
		ProfileSource:    data.ProfileSource,
		UpdatedAt:        now,
		CompletedAt:      &now,
	}

	// Select lists every column so zero counts are still written.
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Select(
			"status", "username", "display_name", "followers", "following", "posts",
			"attributes", "personality", "valuation", "text_pricing", "asset_value",
			"short_review", "review_source", "prose", "raw_response", "provider",
			"extraction_method", "profile_source", "error_code", "error_message",
			"updated_at", "completed_at",
		).
		Updates(&row)

	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("analysis", nil)
	}

	return nil
}

func (r *analysisRepository) SaveError(id uuid.UUID, code, message, rawResponse string) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_code":    code,
			"error_message": message,
			"raw_response":  rawResponse,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("analysis", nil)
	}

	return nil
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}

// FindLatestByUsername returns the newest completed analysis for an
// already-normalized username.
func (r *analysisRepository) FindLatestByUsername(username string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.
		Where("username = ? AND status = ?", username, models.StatusCompleted).
		Order("completed_at DESC").
		First(&analysis).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("analysis", err)
		}
		return nil, fmt.Errorf("failed to find analysis by username: %w", err)
	}

	return &analysis, nil
}

func (r *analysisRepository) FindReparseable(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status IN ? AND raw_response <> ''", []models.AnalysisStatus{models.StatusCompleted, models.StatusFailed}).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find reparseable analyses: %w", err)
	}

	return analyses, nil
}
