package middleware

import (
	"context"
	"encoding/json"
	"time"

	"coopshares-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session.
type SessionConfig struct {
	Secret            string
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "coop.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour

	dashboardModeKey = "dashboard_mode"
)

// SessionUser is the shape stored in session under "user".
type SessionUser struct {
	UserID             string  `json:"user_id"`
	UserName           string  `json:"user_name"`
	FullName           string  `json:"full_name"`
	Role               string  `json:"role"`
	BoardCooperativeID *string `json:"board_cooperative_id"`
}

// SessionUserFor is the session shape of ind.
func SessionUserFor(ind *domain.Individual) SessionUser {
	u := SessionUser{
		UserID:   ind.IndividualID.String(),
		UserName: ind.UserName,
		FullName: ind.FullName,
		Role:     string(ind.Role),
	}
	if a := ind.Actor(); a.BoardCooperativeID != nil {
		s := a.BoardCooperativeID.String()
		u.BoardCooperativeID = &s
	}
	return u
}

// Session returns a Fiber middleware that loads/saves session data from Redis
// at cfg.RedisURL, along with the client it opened.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	return SessionWithClient(rdb), rdb, nil
}

// SessionWithClient is Session on an existing client.
func SessionWithClient(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)
		ctx := context.Background()

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals("session_data", data)
		if u, ok := data["user"]; ok {
			c.Locals(userLocal, u)
		} else {
			c.Locals(userLocal, nil)
		}
		c.Locals("session_id", sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		// persist only sessions that carry a user; logout destroys the key itself
		sid, _ := c.Locals("session_id").(string)
		updated, _ := c.Locals("session_data").(map[string]interface{})
		if sid != "" && updated != nil && updated["user"] != nil {
			b, _ := json.Marshal(updated)
			if err := rdb.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to persist session")
			}
		}
		return nil
	}
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

// SetSessionUser stores user in the session. Call RegenerateSessionID first.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data := sessionData(c)
	var boardCoop interface{}
	if user.BoardCooperativeID != nil {
		boardCoop = *user.BoardCooperativeID
	}
	data["user"] = map[string]interface{}{
		"user_id":              user.UserID,
		"user_name":            user.UserName,
		"full_name":            user.FullName,
		"role":                 user.Role,
		"board_cooperative_id": boardCoop,
	}
	c.Locals("session_data", data)
	c.Locals(userLocal, data["user"])
}

// SetDashboardMode records the preferred dashboard for this session only.
func SetDashboardMode(c *fiber.Ctx, mode string) {
	data := sessionData(c)
	if mode == "" {
		delete(data, dashboardModeKey)
	} else {
		data[dashboardModeKey] = mode
	}
	c.Locals("session_data", data)
}

// GetDashboardMode returns the preferred dashboard, empty when unset.
func GetDashboardMode(c *fiber.Ctx) string {
	m, _ := sessionData(c)[dashboardModeKey].(string)
	return m
}

func sessionData(c *fiber.Ctx) map[string]interface{} {
	data, _ := c.Locals("session_data").(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	return data
}

// RegenerateSessionID creates a new session ID and sets it in Locals; the
// handler sets the cookie.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals("session_id", newID)
	return newID
}

// DestroySession clears user and session data from Locals; caller must clear cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals("session_data", make(map[string]interface{}))
	c.Locals(userLocal, nil)
}

// SessionCookieConfig returns the cookie options for the session cookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
