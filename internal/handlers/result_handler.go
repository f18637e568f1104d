package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"igvalue/ig-value-estimator/internal/extractor"
	"igvalue/ig-value-estimator/internal/models"
	"igvalue/ig-value-estimator/internal/repositories"
)

type ResultHandler struct {
	analysisRepo repositories.AnalysisRepository
}

func NewResultHandler(analysisRepo repositories.AnalysisRepository) *ResultHandler {
	return &ResultHandler{
		analysisRepo: analysisRepo,
	}
}

// HandleGetResult handles GET /result/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest("Invalid analysis ID format", "id")
	}

	analysis, err := h.analysisRepo.FindByID(id)
	if err != nil {
		return err
	}

	return c.JSON(resultResponse(analysis))
}

// HandleGetProfile handles GET /profiles/:username. The username is
// normalized the same way stored records are.
func (h *ResultHandler) HandleGetProfile(c *fiber.Ctx) error {
	username := extractor.NormalizeUsername(c.Params("username"))
	if username == extractor.Unknown {
		return badRequest("Invalid username", "username")
	}

	analysis, err := h.analysisRepo.FindLatestByUsername(username)
	if err != nil {
		return err
	}

	return c.JSON(resultResponse(analysis))
}

func resultResponse(analysis *models.Analysis) models.ResultResponse {
	response := models.ResultResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	}

	switch analysis.Status {
	case models.StatusCompleted:
		response.Result = models.NewAnalysisData(analysis)
	case models.StatusFailed:
		response.ErrorCode = analysis.ErrorCode
		response.ErrorMessage = analysis.ErrorMessage
	}

	return response
}
