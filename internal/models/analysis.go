package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/valuation"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is one valuation job and, once completed, its composed record.
type Analysis struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileUploadID *uuid.UUID     `gorm:"type:uuid" json:"profile_upload_id,omitempty"`
	PostUploadIDs   []uuid.UUID    `gorm:"type:text;serializer:json" json:"post_upload_ids,omitempty"`
	Niche           string         `gorm:"type:text" json:"niche,omitempty"`
	Status          AnalysisStatus `gorm:"type:text;not null;default:'queued';index" json:"status"`

	Username    string `gorm:"type:text;index" json:"username"`
	DisplayName string `gorm:"type:text" json:"display_name"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	Posts       int    `json:"posts"`

	Attributes  *valuation.Attributes      `gorm:"type:text;serializer:json" json:"attributes,omitempty"`
	Personality *valuation.PersonalityType `gorm:"type:text;serializer:json" json:"personality,omitempty"`
	Valuation   *valuation.Result          `gorm:"type:text;serializer:json" json:"valuation,omitempty"`
	TextPricing *extractor.TextPricing     `gorm:"type:text;serializer:json" json:"text_pricing,omitempty"`
	AssetValue  int                        `gorm:"index" json:"asset_value"`

	ShortReview      string `gorm:"type:text" json:"short_review"`
	ReviewSource     string `gorm:"type:text" json:"review_source"`
	Prose            string `gorm:"type:text" json:"prose,omitempty"`
	RawResponse      string `gorm:"type:text" json:"-"`
	Provider         string `gorm:"type:text" json:"provider"`
	ExtractionMethod string `gorm:"type:text" json:"extraction_method"`
	ProfileSource    string `gorm:"type:text" json:"profile_source"`

	ErrorCode    *string `gorm:"type:text" json:"error_code,omitempty"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Analysis) TableName() string {
	return "analyses"
}

func (a *Analysis) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusQueued
	}
	return nil
}
