package health

import (
	"crypto/subtle"

	healthsvc "coopshares-backend/internal/application/health"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const serviceName = "coopshares-api"

// Handlers serves the status page, the machine-readable health report and
// the admin-only stats reset.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	Probes         map[string]healthsvc.Probe
	HealthAdminKey string
}

func (h *Handlers) adminKeyOK(c *fiber.Ctx) bool {
	key := c.Get("X-Admin-Key")
	if key == "" {
		key = c.Query("key")
	}
	return h.HealthAdminKey != "" && key != "" &&
		subtle.ConstantTimeCompare([]byte(key), []byte(h.HealthAdminKey)) == 1
}

// Reset clears traffic stats. Needs HEALTH_ADMIN_KEY in X-Admin-Key or ?key=.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if !h.adminKeyOK(c) {
		return response.Error(c, "Invalid admin key", fiber.StatusForbidden, nil)
	}
	if err := healthsvc.ResetStats(c.UserContext(), h.Rdb); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

func (h *Handlers) collect(c *fiber.Ctx) healthsvc.CollectResult {
	return healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB, h.Probes)
}

// JSON reports status, runtime, traffic and every dependency.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.collect(c)
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Ready is the load balancer probe: 200 when every dependency answers, else 503.
func (h *Handlers) Ready(c *fiber.Ctx) error {
	result := h.collect(c)
	code := fiber.StatusOK
	if result.Status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": result.Status, "dependencies": result.Dependencies})
}

// Errors lists recent unhandled errors, newest first (?limit=, at most 50).
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := healthsvc.RecentErrors(c.UserContext(), h.Rdb, c.QueryInt("limit", healthsvc.ErrorLogLimit))
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(entries)
}

// Dashboard renders the HTML status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(healthsvc.RenderDashboardHTML(h.collect(c)))
}
