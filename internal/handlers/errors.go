package handlers

import (
	"github.com/gofiber/fiber/v2"

	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

// ErrorHandler renders AppErrors with their own status and code. Anything
// else falls back to fiber's status or 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperrors.As(err); ok {
		status := appErr.StatusCode
		if status < 400 {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"message": appErr.Message,
		})
	}

	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func badRequest(message, field string) error {
	return apperrors.NewValidationError(message, field)
}
