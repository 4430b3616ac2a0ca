package middleware

import (
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

const adminTokenHeader = "X-Admin-Token"

// JWTProtected verifies the bearer token. Requests carrying the configured
// admin token skip verification; AdminRequired accepts them.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Filter: func(c *fiber.Ctx) bool {
			return hasAdminToken(c, cfg)
		},
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

func hasAdminToken(c *fiber.Ctx, cfg *config.Config) bool {
	return cfg.AdminToken != "" && c.Get(adminTokenHeader) == cfg.AdminToken
}
