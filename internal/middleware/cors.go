package middleware

import (
	"strings"

	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig: origins ending in AllowedSuffix are trusted; any other origin
// needs the dev-password header.
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

const (
	corsAllowMethods  = "GET, POST, PATCH, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, dev-password, " + traceIDHeader
	corsExposeHeaders = "Content-Disposition, " + traceIDHeader
)

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

// CORS answers preflights for trusted and local origins and rejects
// cross-origin requests from anywhere else with 403. Credentials are allowed
// so the session cookie travels.
func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		trusted := suffix != "" && strings.HasSuffix(strings.ToLower(origin), suffix)

		if c.Method() == fiber.MethodOptions && (trusted || isLocalOrigin(origin)) {
			setCORSHeaders(c, origin)
			return c.SendStatus(fiber.StatusNoContent)
		}
		if trusted || (cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword) {
			setCORSHeaders(c, origin)
			return c.Next()
		}
		return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, nil)
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	c.Set(fiber.HeaderAccessControlExposeHeaders, corsExposeHeaders)
	c.Vary(fiber.HeaderOrigin)
}
