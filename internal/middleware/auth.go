package middleware

import (
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := GetActor(c); !ok {
			return response.Unauthorized(c, "")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// GetActor builds the caller's capability from the session user.
func GetActor(c *fiber.Ctx) (domain.Actor, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return domain.Actor{}, false
	}
	idStr, _ := m["user_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		return domain.Actor{}, false
	}
	role, _ := m["role"].(string)
	actor := domain.Actor{UserID: id, Role: domain.ParseRole(role)}
	if s, ok := m["board_cooperative_id"].(string); ok && s != "" {
		if coopID, err := uuid.Parse(s); err == nil {
			actor.BoardCooperativeID = &coopID
		}
	}
	return actor, true
}
