package handlers

import (
	"github.com/gofiber/fiber/v2"

	"igvalue/ig-value-estimator/internal/services"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

type DebugHandler struct {
	sink    services.ResponseSink
	summary map[string]any
}

// NewDebugHandler takes the already redacted config summary.
func NewDebugHandler(sink services.ResponseSink, summary map[string]any) *DebugHandler {
	return &DebugHandler{
		sink:    sink,
		summary: summary,
	}
}

// HandleLastAI handles GET /debug/last_ai
func (h *DebugHandler) HandleLastAI(c *fiber.Ctx) error {
	record, err := h.sink.Last(c.UserContext())
	if err != nil {
		return apperrors.NewStorageError("failed to read last model response", err)
	}
	if record == nil {
		return c.JSON(fiber.Map{"record": nil})
	}

	return c.JSON(fiber.Map{"record": record})
}

// HandleConfig handles GET /debug/config
func (h *DebugHandler) HandleConfig(c *fiber.Ctx) error {
	return c.JSON(h.summary)
}
