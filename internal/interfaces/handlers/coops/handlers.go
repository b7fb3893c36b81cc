package coops

import (
	coopsvc "coopshares-backend/internal/application/coops"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/middleware"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the cooperative registry.
type Handlers struct {
	Service *coopsvc.Service
}

// Create POST /api/v1/coops: the caller becomes its first board member
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var in coopsvc.CoopInput
	if err := request.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	coop, founder, err := h.Service.Create(c.UserContext(), actor, in)
	if err != nil {
		return response.FromError(c, err)
	}
	middleware.SetSessionUser(c, middleware.SessionUserFor(founder))
	return response.SuccessCreated(c, "Cooperative created", coop, nil)
}

// List GET /api/v1/coops
func (h *Handlers) List(c *fiber.Ctx) error {
	coops, err := h.Service.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Cooperatives fetched", coops, fiber.Map{"count": len(coops)})
}

// Get GET /api/v1/coops/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	coop, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Cooperative fetched", coop, nil)
}

// Update PATCH /api/v1/coops/:id: board only
func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in coopsvc.CoopUpdate
	if err := request.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	coop, err := h.Service.Update(c.UserContext(), actor, id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Cooperative updated", coop, nil)
}

// IssueSharesRequest is the primary issuance body.
type IssueSharesRequest struct {
	Quantity int64 `json:"quantity"`
}

// IssueShares POST /api/v1/coops/:id/shares: board only
func (h *Handlers) IssueShares(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req IssueSharesRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	coop, err := h.Service.IssuePrimaryShares(c.UserContext(), actor, id, req.Quantity)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Shares issued", coop, nil)
}

// Summary GET /api/v1/coops/:id/summary
func (h *Handlers) Summary(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	sum, err := h.Service.Summarize(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Summary fetched", sum, nil)
}
