package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	storage string
}

// NewHealthHandler takes a nil db when the process runs on in-memory storage.
func NewHealthHandler(db *gorm.DB, storage string) *HealthHandler {
	return &HealthHandler{db: db, storage: storage}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "not_configured"
	if h.db != nil {
		dbStatus = "ok"
		if err := database.Ping(h.db); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Storage:   h.storage,
		DB:        dbStatus,
	})
}
