package handlers

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/verification"
	"github.com/gofiber/fiber/v2"
)

const maxPhotoBytes = 4 * 1024 * 1024

type VerificationHandler struct {
	verifier *verification.Verifier
}

func NewVerificationHandler(verifier *verification.Verifier) *VerificationHandler {
	return &VerificationHandler{verifier: verifier}
}

// Verify checks a customer photo against the product of an order. It expects
// a multipart form with order_id and image.
func (h *VerificationHandler) Verify(c *fiber.Ctx) error {
	req := dto.VerifyRequest{OrderID: c.FormValue("order_id")}
	if err := dto.Validate(req); err != nil {
		return inputError(c, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return inputError(c, &dto.ValidationError{Fields: map[string]string{"image": "is required"}})
	}
	f, err := fh.Open()
	if err != nil {
		return invalidBody(c)
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes))
	if err != nil {
		return invalidBody(c)
	}

	res, err := h.verifier.Verify(c.UserContext(), req.OrderID, image, fh.Filename)
	switch {
	case errors.Is(err, verification.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Order not found",
		})
	case errors.Is(err, verification.ErrNoImage):
		return inputError(c, &dto.ValidationError{Fields: map[string]string{"image": "must not be empty"}})
	case err != nil:
		slog.Error("order verification failed", "request_id", requestID(c), "order_id", req.OrderID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.VerifyResponse{
			Result: "error", Message: "Verification failed",
		})
	}

	result := "authentic"
	if !res.IsAuthentic {
		result = "counterfeit"
	}
	return c.JSON(dto.VerifyResponse{Result: result, Details: &res})
}
