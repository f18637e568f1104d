package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"igvalue/ig-value-estimator/internal/models"
	"igvalue/ig-value-estimator/internal/repositories"
	"igvalue/ig-value-estimator/internal/services"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

type AnalyzeHandler struct {
	analysisRepo repositories.AnalysisRepository
	uploadRepo   repositories.UploadRepository
	analyzer     services.AnalyzerService
	worker       services.Worker
	maxPosts     int
}

func NewAnalyzeHandler(
	analysisRepo repositories.AnalysisRepository,
	uploadRepo repositories.UploadRepository,
	analyzer services.AnalyzerService,
	worker services.Worker,
	maxPosts int,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisRepo: analysisRepo,
		uploadRepo:   uploadRepo,
		analyzer:     analyzer,
		worker:       worker,
		maxPosts:     maxPosts,
	}
}

// HandleAnalyze handles POST /analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req models.AnalyzeRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request payload", "body")
	}

	if req.ProfileUploadID == "" {
		return badRequest("profile_upload_id is required", "profile_upload_id")
	}

	profileID, err := uuid.Parse(req.ProfileUploadID)
	if err != nil {
		return badRequest("Invalid profile_upload_id format", "profile_upload_id")
	}

	if len(req.PostUploadIDs) > h.maxPosts {
		req.PostUploadIDs = req.PostUploadIDs[:h.maxPosts]
	}
	postIDs := make([]uuid.UUID, 0, len(req.PostUploadIDs))
	for _, raw := range req.PostUploadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest("Invalid post_upload_ids format", "post_upload_ids")
		}
		postIDs = append(postIDs, id)
	}

	profile, err := h.uploadRepo.FindByID(profileID)
	if err != nil {
		return err
	}
	if profile.Kind != models.UploadKindProfile {
		return badRequest("profile_upload_id does not reference a profile screenshot", "profile_upload_id")
	}

	analysis := &models.Analysis{
		ProfileUploadID: &profileID,
		PostUploadIDs:   postIDs,
		Niche:           strings.TrimSpace(req.Niche),
		Status:          models.StatusQueued,
	}

	if err := h.analysisRepo.Create(analysis); err != nil {
		return apperrors.NewStorageError("Failed to create analysis job", err)
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.AnalyzeResponse{
		ID:     analysis.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// HandleAnalyzeText handles POST /analyze/text. It runs the extraction and
// valuation synchronously over a model response supplied by the caller.
func (h *AnalyzeHandler) HandleAnalyzeText(c *fiber.Ctx) error {
	var req models.AnalyzeTextRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request payload", "body")
	}

	if strings.TrimSpace(req.Text) == "" {
		return badRequest("text is required", "text")
	}

	report, err := h.analyzer.AnalyzeText(c.UserContext(), req.Text)
	if err != nil {
		return err
	}

	return c.JSON(report)
}
