package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type FlagHandler struct {
	store *flags.Store
}

func NewFlagHandler(store *flags.Store) *FlagHandler {
	return &FlagHandler{store: store}
}

func (h *FlagHandler) List(c *fiber.Ctx) error {
	list, err := h.store.List(c.UserContext())
	if err != nil {
		slog.Error("flag list failed", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch flags",
		})
	}
	if list == nil {
		list = []flags.Flag{}
	}
	return c.JSON(dto.FlagListResponse{Flags: list, Count: len(list)})
}

// Get returns the flag with a reviewer report attached.
func (h *FlagHandler) Get(c *fiber.Ctx) error {
	f, err := h.store.Enrich(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, flags.ErrFlagNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Flag not found",
			})
		}
		slog.Error("flag lookup failed", "request_id", requestID(c), "flag_id", c.Params("id"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch flag",
		})
	}
	return c.JSON(f)
}

func (h *FlagHandler) Export(c *fiber.Ctx) error {
	list, err := h.store.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch flags",
		})
	}

	var buf bytes.Buffer
	if err := flags.WriteXLSX(&buf, list); err != nil {
		slog.Error("flag export failed", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to export flags",
		})
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="flags-%s.xlsx"`, time.Now().UTC().Format("20060102")))
	return c.Send(buf.Bytes())
}
