package handlers

import (
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/review"
	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	scorer *review.Scorer
}

func NewReviewHandler(scorer *review.Scorer) *ReviewHandler {
	return &ReviewHandler{scorer: scorer}
}

func (h *ReviewHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	sub, err := req.Parse()
	if err != nil {
		return inputError(c, err)
	}

	return c.JSON(h.scorer.Score(c.UserContext(), sub))
}
