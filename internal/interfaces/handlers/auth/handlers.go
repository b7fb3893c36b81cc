package auth

import (
	"context"
	"errors"

	"coopshares-backend/internal/application/accounts"
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/interfaces/handlers/request"
	"coopshares-backend/internal/middleware"
	"coopshares-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Authenticator checks credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, userName, password string) (*domain.Individual, error)
}

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Accounts Authenticator
	Rdb      *redis.Client
	Config   middleware.SessionConfig
}

// LoginRequest is the login body.
type LoginRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Accounts == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := request.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}

	ind, err := h.Accounts.Authenticate(c.UserContext(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		}
		return response.FromError(c, err)
	}

	sessionID := middleware.RegenerateSessionID(c)
	user := middleware.SessionUserFor(ind)
	middleware.SetSessionUser(c, user)

	if err := middleware.TrackUserSession(c.UserContext(), h.Rdb, user.UserID, sessionID); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{
		"user":      user,
		"dashboard": accounts.ResolveDashboard(ind.Role, ""),
	}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser, ok := middleware.GetUser(c).(map[string]interface{})
	if !ok || sessionUser["user_id"] == nil {
		if middleware.GetSessionID(c) != "" {
			log.Info().Str("path", "/auth/me").Msg("session id present but no user in session data")
		}
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": sessionUser}, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	if sessionID != "" {
		userID := ""
		if m, ok := middleware.GetUser(c).(map[string]interface{}); ok {
			userID, _ = m["user_id"].(string)
		}
		middleware.UntrackUserSession(c.UserContext(), h.Rdb, userID, sessionID)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
