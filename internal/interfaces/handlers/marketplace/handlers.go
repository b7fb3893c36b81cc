package marketplace

import (
	mktsvc "coopshares-backend/internal/application/marketplace"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles marketplace handlers.
type Handlers struct {
	Service *mktsvc.Service
}

// CreateListingRequest offers shares of one cooperative.
type CreateListingRequest struct {
	CooperativeID uuid.UUID `json:"cooperative_id" validate:"required"`
	Quantity      int64     `json:"quantity"`
}

// BuyRequest is the body of every purchase. Source applies to routed buys
// only and defaults to auto.
type BuyRequest struct {
	Quantity int64  `json:"quantity"`
	Source   string `json:"source"`
}

// ListListings GET /api/v1/marketplace/coops/:coop_id/listings: oldest first
func (h *Handlers) ListListings(c *fiber.Ctx) error {
	coopID, err := request.UUIDParam(c, "coop_id")
	if err != nil {
		return response.FromError(c, err)
	}
	listings, err := h.Service.ListActiveListings(c.UserContext(), coopID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", listings, fiber.Map{"count": len(listings)})
}

// AllListings GET /api/v1/marketplace/listings?coop=<id>
func (h *Handlers) AllListings(c *fiber.Ctx) error {
	coopID, err := request.UUIDQuery(c, "coop")
	if err != nil {
		return response.FromError(c, err)
	}
	listings, err := h.Service.ListActiveListings(c.UserContext(), coopID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", listings, fiber.Map{"count": len(listings)})
}

// GetListing GET /api/v1/marketplace/listings/:id
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	listing, err := h.Service.GetListing(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// ListingEvents GET /api/v1/marketplace/listings/:id/events
func (h *Handlers) ListingEvents(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	events, err := h.Service.ListListingEvents(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing events fetched successfully", fiber.Map{"events": events}, nil)
}

// CreateListing POST /api/v1/marketplace/listings: 201 with the listing
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req CreateListingRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	listing, err := h.Service.CreateListing(c.UserContext(), actor, req.CooperativeID, req.Quantity)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// CancelListing POST /api/v1/marketplace/listings/:id/cancel
func (h *Handlers) CancelListing(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	listing, err := h.Service.CancelListing(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing canceled successfully", listing, nil)
}

// BuyListing POST /api/v1/marketplace/listings/:id/buy
func (h *Handlers) BuyListing(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req BuyRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	trade, err := h.Service.BuyFromListing(c.UserContext(), actor, id, req.Quantity)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Purchase completed", trade, nil)
}

// BuyPrimary POST /api/v1/marketplace/coops/:coop_id/primary
func (h *Handlers) BuyPrimary(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	coopID, err := request.UUIDParam(c, "coop_id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req BuyRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	trade, err := h.Service.BuyPrimary(c.UserContext(), actor, coopID, req.Quantity)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Purchase completed", trade, nil)
}

// Buy POST /api/v1/marketplace/coops/:coop_id/buy: routed over primary
// inventory and listings
func (h *Handlers) Buy(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	coopID, err := request.UUIDParam(c, "coop_id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req BuyRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	source, err := mktsvc.ParseSource(req.Source)
	if err != nil {
		return response.FromError(c, err)
	}
	purchase, err := h.Service.BuyFromMarketplace(c.UserContext(), actor, coopID, req.Quantity, source)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Purchase completed", purchase, nil)
}

// MyListings GET /api/v1/me/listings
func (h *Handlers) MyListings(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	listings, err := h.Service.ListSellerListings(c.UserContext(), actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", listings, fiber.Map{"count": len(listings)})
}

// MyTrades GET /api/v1/me/trades
func (h *Handlers) MyTrades(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	trades, err := h.Service.ListTrades(c.UserContext(), actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Trades fetched successfully", trades, fiber.Map{"count": len(trades)})
}
