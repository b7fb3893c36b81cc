package response

import (
	"errors"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a domain error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrPermission), errors.Is(err, domain.ErrSelfTrade):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientHolding),
		errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrInsufficientQuantity),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConsistency),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, coordination.ErrNotObtained):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

type detailer interface {
	ErrorDetails() interface{}
}

// FromError sends err in the standard error format. Internal errors are not
// echoed to the client.
func FromError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code == fiber.StatusInternalServerError {
		return Error(c, "Internal Server Error", code, nil)
	}

	var details interface{}
	var sf *domain.Shortfall
	var dp detailer
	if errors.As(err, &dp) {
		details = dp.ErrorDetails()
	} else if errors.As(err, &sf) {
		details = map[string]interface{}{
			"source":    sf.Source,
			"requested": sf.Requested,
			"available": sf.Available,
			"missing":   sf.Missing(),
		}
	}
	return Error(c, err.Error(), code, details)
}

// ValidationFailed sends 400 with per-field details.
func ValidationFailed(c *fiber.Ctx, details map[string]string) error {
	return Error(c, "Validation failed", fiber.StatusBadRequest, details)
}
