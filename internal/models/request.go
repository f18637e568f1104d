package models

import (
	"time"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/valuation"
)

type UploadResponse struct {
	ProfileUploadID string   `json:"profile_upload_id"`
	PostUploadIDs   []string `json:"post_upload_ids"`
}

type AnalyzeRequest struct {
	ProfileUploadID string   `json:"profile_upload_id"`
	PostUploadIDs   []string `json:"post_upload_ids"`
	Niche           string   `json:"niche"`
}

type AnalyzeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AnalyzeTextRequest replays a stored or hand-written model response.
type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

type ResultResponse struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Result       *AnalysisData `json:"result,omitempty"`
	ErrorCode    *string       `json:"error_code,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
}

type AnalysisData struct {
	Profile     extractor.Profile          `json:"profile"`
	Valuation   *valuation.Result          `json:"valuation"`
	Attributes  *valuation.Attributes      `json:"attributes,omitempty"`
	Personality *valuation.PersonalityType `json:"personality,omitempty"`
	TextPricing *extractor.TextPricing     `json:"text_pricing,omitempty"`
	ShortReview string                     `json:"short_review"`
	Analysis    string                     `json:"analysis_text,omitempty"`
	Provider    string                     `json:"provider,omitempty"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
}

// NewAnalysisData builds the public view of a completed analysis.
func NewAnalysisData(a *Analysis) *AnalysisData {
	return &AnalysisData{
		Profile: extractor.Profile{
			Username:    a.Username,
			DisplayName: a.DisplayName,
			Followers:   a.Followers,
			Following:   a.Following,
			Posts:       a.Posts,
		},
		Valuation:   a.Valuation,
		Attributes:  a.Attributes,
		Personality: a.Personality,
		TextPricing: a.TextPricing,
		ShortReview: a.ShortReview,
		Analysis:    a.Prose,
		Provider:    a.Provider,
		CompletedAt: a.CompletedAt,
	}
}
