package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coopshares-backend/internal/config"
	"coopshares-backend/internal/interfaces/router"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "Listen port (overrides PORT)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		return Serve(cmd.Context(), cfg)
	},
}

// checkConnections fails fast when a configured store is unreachable.
func checkConnections(ctx context.Context, db *gorm.DB, rdb *redis.Client) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database handle: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		log.Info().Msg("database connected")
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		log.Info().Msg("redis connected")
	}
	return nil
}

// Serve runs the API until ctx is canceled or the process gets SIGINT/SIGTERM,
// then drains in-flight requests.
func Serve(ctx context.Context, cfg *config.Config) error {
	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}
	if err := checkConnections(ctx, db, rdb); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("lock_backend", cfg.LockBackend).
		Msgf("server running, health check at http://localhost:%s/health/json", cfg.Port)
	return app.Listen(":" + cfg.Port)
}
