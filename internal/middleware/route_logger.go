package middleware

import (
	"strconv"
	"time"

	"coopshares-backend/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger writes one access line per request and records its latency.
// Errors are resolved through the app's error handler first so the logged
// status matches what the client sees.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		observability.HTTPRequests.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		traceID := GetTraceID(c)
		if traceID == "" {
			traceID = "no-trace-id"
		}
		ev = ev.Str("trace_id", traceID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("ms", elapsed.Milliseconds())
		if uid := sessionUserID(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		ev.Msg("request")
		return nil
	}
}

func sessionUserID(c *fiber.Ctx) string {
	if m, ok := c.Locals("user").(map[string]interface{}); ok {
		if id, ok := m["user_id"].(string); ok {
			return id
		}
	}
	return ""
}
