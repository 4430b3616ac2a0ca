package handlers

import (
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/risk"
	"github.com/gofiber/fiber/v2"
)

type MonitorHandler struct {
	engine *risk.Engine
}

func NewMonitorHandler(engine *risk.Engine) *MonitorHandler {
	return &MonitorHandler{engine: engine}
}

// Step scores one step of the listing form while the seller fills it in.
func (h *MonitorHandler) Step(c *fiber.Ctx) error {
	var req dto.MonitorStepRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	in, err := req.Parse()
	if err != nil {
		return inputError(c, err)
	}

	return c.JSON(h.engine.MonitorStep(c.UserContext(), in))
}
