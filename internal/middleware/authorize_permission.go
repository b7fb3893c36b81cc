package middleware

import (
	"fmt"

	"coopshares-backend/internal/constants"
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission gates a route on the session role. It only checks the
// coarse role; services still verify the actor's own cooperative.
// Routing an unconfigured permission is a programming error and panics when
// the route is built.
func AuthorizePermission(permission string) fiber.Handler {
	if len(constants.PermissionRoles[permission]) == 0 {
		panic(fmt.Sprintf("middleware: permission %q has no roles configured", permission))
	}
	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return response.Unauthorized(c, "")
		}
		if !constants.AllowedRole(permission, actor.Role) {
			return response.FromError(c, fmt.Errorf("%s: %w", permission, domain.ErrPermission))
		}
		return c.Next()
	}
}
