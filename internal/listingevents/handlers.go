package listingevents

import (
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// GET /api/v1/me/listing-events?coop=<id>
func (h *Handlers) GetMyListingEvents(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	coopID, err := request.UUIDQuery(c, "coop")
	if err != nil {
		return response.FromError(c, err)
	}
	events, err := h.Service.GetSellerListingEvents(c.UserContext(), actor.UserID, coopID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing events fetched successfully", fiber.Map{"events": events}, nil)
}
