package projects

import (
	allocsvc "coopshares-backend/internal/application/allocation"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the project lifecycle and finalization.
type Handlers struct {
	Service *allocsvc.Service
}

// CreateProjectRequest is the new-project body.
type CreateProjectRequest struct {
	CooperativeID      uuid.UUID `json:"cooperative_id" validate:"required"`
	Title              string    `json:"title" validate:"required,max=200"`
	Description        string    `json:"description"`
	ImageURL           *string   `json:"image_url" validate:"omitempty,url"`
	GoalAmount         int64     `json:"goal_amount" validate:"gt=0"`
	SharesToDistribute int64     `json:"shares_to_distribute" validate:"gte=0"`
}

// Create POST /api/v1/projects: board only, starts as DRAFT
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req CreateProjectRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	project, err := h.Service.CreateProject(c.UserContext(), actor, allocsvc.ProjectInput{
		CooperativeID:      req.CooperativeID,
		Title:              req.Title,
		Description:        req.Description,
		ImageURL:           req.ImageURL,
		GoalAmount:         req.GoalAmount,
		SharesToDistribute: req.SharesToDistribute,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Project created", project, nil)
}

// List GET /api/v1/projects?coop=<id>
func (h *Handlers) List(c *fiber.Ctx) error {
	coopID, err := request.UUIDQuery(c, "coop")
	if err != nil {
		return response.FromError(c, err)
	}
	projects, err := h.Service.ListProjects(c.UserContext(), coopID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Projects fetched", projects, fiber.Map{"count": len(projects)})
}

// Get GET /api/v1/projects/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	project, err := h.Service.GetProject(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project fetched", project, nil)
}

// Activate POST /api/v1/projects/:id/activate
func (h *Handlers) Activate(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	project, err := h.Service.ActivateProject(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project activated", project, nil)
}

// Cancel POST /api/v1/projects/:id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	project, err := h.Service.CancelProject(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project canceled", project, nil)
}

// ContributeRequest is a pledge body.
type ContributeRequest struct {
	Amount int64 `json:"amount"`
}

// Contribute POST /api/v1/projects/:id/contributions
func (h *Handlers) Contribute(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req ContributeRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	contribution, err := h.Service.Contribute(c.UserContext(), actor, id, req.Amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Contribution recorded", contribution, nil)
}

// Contributions GET /api/v1/projects/:id/contributions
func (h *Handlers) Contributions(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	cs, err := h.Service.ListContributions(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Contributions fetched", cs, fiber.Map{"count": len(cs)})
}

// Finalize POST /api/v1/projects/:id/finalize: 200 with the allocations;
// repeating it returns the stored result with already_done set.
func (h *Handlers) Finalize(c *fiber.Ctx) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	result, err := h.Service.Finalize(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Project finalized"
	if result.AlreadyDone {
		msg = "Project already finalized"
	}
	return response.Success(c, msg, result, nil)
}
