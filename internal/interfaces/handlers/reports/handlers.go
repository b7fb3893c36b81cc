package reports

import (
	"bytes"
	"context"
	"fmt"

	reportsvc "coopshares-backend/internal/application/reports"
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves CSV and XLSX downloads.
type Handlers struct {
	Service *reportsvc.Service
}

type boardReport func(ctx context.Context, actor domain.Actor, coopID uuid.UUID) (*reportsvc.Table, error)

type personalReport func(ctx context.Context, userID uuid.UUID) (*reportsvc.Table, error)

// CoopShareholders GET /api/v1/reports/coops/:id/shareholders.:format
func (h *Handlers) CoopShareholders(c *fiber.Ctx) error {
	return h.board(c, h.Service.Shareholders)
}

// CoopTrades GET /api/v1/reports/coops/:id/trades.:format
func (h *Handlers) CoopTrades(c *fiber.Ctx) error {
	return h.board(c, h.Service.Trades)
}

// CoopSummary GET /api/v1/reports/coops/:id/summary.:format
func (h *Handlers) CoopSummary(c *fiber.Ctx) error {
	return h.board(c, h.Service.Summary)
}

// MyHoldings GET /api/v1/reports/me/holdings.:format
func (h *Handlers) MyHoldings(c *fiber.Ctx) error {
	return h.personal(c, h.Service.MyHoldings)
}

// MyContributions GET /api/v1/reports/me/contributions.:format
func (h *Handlers) MyContributions(c *fiber.Ctx) error {
	return h.personal(c, h.Service.MyContributions)
}

// MyTrades GET /api/v1/reports/me/trades.:format
func (h *Handlers) MyTrades(c *fiber.Ctx) error {
	return h.personal(c, h.Service.MyTrades)
}

func (h *Handlers) board(c *fiber.Ctx, build boardReport) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	format, err := parseFormat(c)
	if err != nil {
		return response.FromError(c, err)
	}
	coopID, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	table, err := build(c.UserContext(), actor, coopID)
	if err != nil {
		return response.FromError(c, err)
	}
	return download(c, table, format)
}

func (h *Handlers) personal(c *fiber.Ctx, build personalReport) error {
	actor, err := request.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	format, err := parseFormat(c)
	if err != nil {
		return response.FromError(c, err)
	}
	table, err := build(c.UserContext(), actor.UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return download(c, table, format)
}

func parseFormat(c *fiber.Ctx) (reportsvc.Format, error) {
	f, ok := reportsvc.ParseFormat(c.Params("format"))
	if !ok {
		return "", fmt.Errorf("format must be csv or xlsx: %w", domain.ErrInvalidArgument)
	}
	return f, nil
}

func download(c *fiber.Ctx, table *reportsvc.Table, format reportsvc.Format) error {
	var buf bytes.Buffer
	if err := table.Write(&buf, format); err != nil {
		return response.FromError(c, err)
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Attachment(table.Filename(format))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
