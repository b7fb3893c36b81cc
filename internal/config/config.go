package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Lock backends.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string // postgres URL, or sqlite:<path> for a single-instance deployment
	RedisURL            string
	LockBackend         string
	LockTTL             time.Duration
	LockWait            time.Duration
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	AutoMigrate         bool
}

// IsProduction reports whether cookies must be secure.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("LOCK_BACKEND", LockBackendLocal)
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("LOCK_WAIT", "5s")

	cfg := &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		LockBackend:         strings.ToLower(strings.TrimSpace(v.GetString("LOCK_BACKEND"))),
		LockTTL:             v.GetDuration("LOCK_TTL"),
		LockWait:            v.GetDuration("LOCK_WAIT"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		AutoMigrate:         v.GetBool("AUTO_MIGRATE"),
	}
	if strings.HasPrefix(cfg.DatabaseURL, "sqlite:") && !v.IsSet("AUTO_MIGRATE") {
		cfg.AutoMigrate = true
	}

	switch cfg.LockBackend {
	case LockBackendLocal, LockBackendRedis:
	default:
		return nil, fmt.Errorf("LOCK_BACKEND must be %q or %q, got %q", LockBackendLocal, LockBackendRedis, cfg.LockBackend)
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("LOCK_TTL must be positive")
	}
	return cfg, nil
}
