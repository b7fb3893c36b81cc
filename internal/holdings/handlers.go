// Package holdings serves a shareholder's own positions.
package holdings

import (
	holdingsvc "coopshares-backend/internal/application/holdings"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles holdings handlers.
type Handlers struct {
	Service *holdingsvc.Service
}

// ViewHoldings GET /api/v1/me/holdings
func (h *Handlers) ViewHoldings(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	data, err := h.Service.ViewHoldings(c.UserContext(), actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holdings fetched successfully", data, fiber.Map{"count": len(data)})
}

// ViewHolding GET /api/v1/me/holdings/:coop_id
func (h *Handlers) ViewHolding(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	coopID, err := request.UUIDParam(c, "coop_id")
	if err != nil {
		return response.FromError(c, err)
	}
	data, err := h.Service.ViewHolding(c.UserContext(), actor.UserID, coopID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holding fetched successfully", data, nil)
}

// ViewContributions GET /api/v1/me/contributions?limit=n
func (h *Handlers) ViewContributions(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	data, err := h.Service.ViewContributions(c.UserContext(), actor.UserID, c.QueryInt("limit", 0))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Contributions fetched successfully", data, fiber.Map{"count": len(data)})
}
