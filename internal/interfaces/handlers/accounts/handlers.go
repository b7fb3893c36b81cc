package accounts

import (
	accountsvc "coopshares-backend/internal/application/accounts"
	coopsvc "coopshares-backend/internal/application/coops"
	holdingsvc "coopshares-backend/internal/application/holdings"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/middleware"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers serves registration, dashboards and board membership.
type Handlers struct {
	Service  *accountsvc.Service
	Coops    *coopsvc.Service
	Holdings *holdingsvc.Service
	Rdb      *redis.Client
}

// Register POST /api/v1/accounts/register: 201 with the new individual
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in accountsvc.RegisterInput
	if err := request.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	ind, err := h.Service.Register(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Registered", ind, nil)
}

// Profile GET /api/v1/accounts/me
func (h *Handlers) Profile(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	ind, err := h.Service.Get(c.UserContext(), actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile fetched", ind, nil)
}

// Dashboard GET /api/v1/dashboard: the resolved mode and its data
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	mode := accountsvc.ResolveDashboard(actor.Role, middleware.GetDashboardMode(c))
	out := fiber.Map{"mode": mode, "data": nil}

	switch mode {
	case accountsvc.ModeBoard:
		if actor.BoardCooperativeID != nil {
			sum, err := h.Coops.Summarize(c.UserContext(), *actor.BoardCooperativeID)
			if err != nil {
				return response.FromError(c, err)
			}
			out["data"] = sum
		}
	case accountsvc.ModeShareholder:
		dash, err := h.Holdings.ViewDashboard(c.UserContext(), actor.UserID)
		if err != nil {
			return response.FromError(c, err)
		}
		out["data"] = dash
	}
	return response.Success(c, "Dashboard fetched", out, nil)
}

// SwitchModeRequest is the dashboard switch body.
type SwitchModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// SwitchMode PATCH /api/v1/dashboard/mode
func (h *Handlers) SwitchMode(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req SwitchModeRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	if err := accountsvc.CheckMode(actor.Role, req.Mode); err != nil {
		return response.FromError(c, err)
	}
	middleware.SetDashboardMode(c, req.Mode)
	return response.Success(c, "Dashboard switched", fiber.Map{"mode": req.Mode}, nil)
}

// AddBoardMemberRequest names the shareholder to promote.
type AddBoardMemberRequest struct {
	ShareholderID string `json:"shareholder_id" validate:"required"`
}

// AddBoardMember POST /api/v1/board/members
func (h *Handlers) AddBoardMember(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req AddBoardMemberRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	ind, err := h.Service.AddBoardMember(c.UserContext(), actor, req.ShareholderID)
	if err != nil {
		return response.FromError(c, err)
	}
	// the member's live sessions carry the old role
	middleware.DestroyUserSessions(c.UserContext(), h.Rdb, ind.IndividualID.String())
	return response.SuccessCreated(c, "Board member added", ind, nil)
}
