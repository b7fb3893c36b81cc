// Package request holds the body and parameter parsing shared by handlers.
package request

import (
	"fmt"
	"strings"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/middleware"
	"coopshares-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// InvalidBody is a request body that failed to parse or validate.
type InvalidBody struct {
	Fields map[string]string
}

func (e *InvalidBody) Error() string {
	if len(e.Fields) == 0 {
		return "Invalid request body"
	}
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	return "Validation failed: " + strings.Join(names, ", ")
}

func (e *InvalidBody) Unwrap() error { return domain.ErrInvalidArgument }

// ErrorDetails exposes the failing fields to the error response.
func (e *InvalidBody) ErrorDetails() interface{} {
	if e.Fields == nil {
		return map[string]string{}
	}
	return e.Fields
}

// Bind parses the JSON body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &InvalidBody{}
	}
	fields, err := validation.Struct(dst)
	if err != nil {
		if fields == nil {
			return err
		}
		return &InvalidBody{Fields: fields}
	}
	return nil
}

// UUIDParam parses a route parameter.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID: %w", name, domain.ErrInvalidArgument)
	}
	return id, nil
}

// UUIDQuery parses an optional query parameter; absent yields uuid.Nil.
func UUIDQuery(c *fiber.Ctx, name string) (uuid.UUID, error) {
	s := c.Query(name)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID: %w", name, domain.ErrInvalidArgument)
	}
	return id, nil
}

// Actor returns the caller from the session.
func Actor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	return actor, nil
}
