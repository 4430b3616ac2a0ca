package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// inputError answers 422 for validation failures and 400 for anything else
// the request parser rejected.
func inputError(c *fiber.Ctx, err error) error {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Validation failed", Fields: verr.Fields,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: err.Error(),
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid request body",
	})
}
