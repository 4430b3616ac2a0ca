package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Listings     *handlers.ListingHandler
	Monitor      *handlers.MonitorHandler
	Reviews      *handlers.ReviewHandler
	Verification *handlers.VerificationHandler
	Flags        *handlers.FlagHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Seller-facing
	api.Post("/listings", h.Listings.Submit)
	api.Post("/monitor/step", h.Monitor.Step)
	api.Get("/products/search", h.Listings.Search)
	api.Get("/products/:id", h.Listings.Get)

	// Shopper-facing
	api.Post("/reviews/analyze", h.Reviews.Analyze)
	api.Post("/verify", h.Verification.Verify)

	// Review queue (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/flags", h.Flags.List)
	admin.Get("/flags/export", h.Flags.Export)
	admin.Get("/flags/:id", h.Flags.Get)
}
