// Package bootstrap builds the API for hosts that import it from outside
// internal/, such as the serverless handler in api/.
package bootstrap

import (
	"sync"

	"coopshares-backend/internal/config"
	"coopshares-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var (
	once   sync.Once
	app    *fiber.App
	appErr error
)

// New builds the app from the environment.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, _, _, err := router.CreateApp(cfg)
	return a, err
}

// Shared returns one app per process, built on first use. A failed build is
// remembered; the host restarts the instance to retry.
func Shared() (*fiber.App, error) {
	once.Do(func() {
		app, appErr = New()
		if appErr != nil {
			log.Error().Err(appErr).Msg("app create")
		}
	})
	return app, appErr
}
