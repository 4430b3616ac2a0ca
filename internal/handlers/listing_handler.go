package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/listings"
	"github.com/gofiber/fiber/v2"
)

type ListingHandler struct {
	listings *listings.Service
}

func NewListingHandler(svc *listings.Service) *ListingHandler {
	return &ListingHandler{listings: svc}
}

// Submit assesses and stores a new listing.
func (h *ListingHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitListingRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	listing, image, err := req.Parse()
	if err != nil {
		return inputError(c, err)
	}

	product, eval, err := h.listings.Submit(c.UserContext(), req.SellerID, listing, image)
	if err != nil {
		slog.Error("listing submit failed", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to store listing",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubmitListingResponse{
		ProductID:  product.ID,
		Status:     product.Status,
		Assessment: eval.Assessment,
		Flag:       eval.Flag,
	})
}

func (h *ListingHandler) Search(c *fiber.Ctx) error {
	products, err := h.listings.Search(c.UserContext(), c.Query("keyword"))
	if err != nil {
		slog.Error("product search failed", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to search products",
		})
	}
	if products == nil {
		products = []listings.ListedProduct{}
	}
	return c.JSON(dto.ProductListResponse{Products: products, Count: len(products)})
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	product, err := h.listings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, listings.ErrListingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch product",
		})
	}
	return c.JSON(product)
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
