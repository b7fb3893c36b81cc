// Package cli is the coopctl command tree: serving the API and the board
// operations an operator runs by hand.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	accountsvc "coopshares-backend/internal/application/accounts"
	"coopshares-backend/internal/config"
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/database"
	"coopshares-backend/internal/interfaces/router"
	"coopshares-backend/internal/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "coopctl",
	Short:         "Operate the cooperative shares service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// deps are the stores a one-off command needs.
type deps struct {
	cfg    *config.Config
	db     *gorm.DB
	rdb    *redis.Client
	locker coordination.Locker
}

func (d *deps) Close() {
	if d.rdb != nil {
		d.rdb.Close()
	}
	if d.db != nil {
		if sqlDB, err := d.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func openDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, db: db}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			d.Close()
			return nil, err
		}
	}
	if cfg.LockBackend == config.LockBackendRedis {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.rdb = redis.NewClient(opt)
	}
	d.locker = router.NewLocker(cfg, d.rdb)
	return d, nil
}

// actorFor resolves the individual a command acts as.
func actorFor(ctx context.Context, db *gorm.DB, userName string) (domain.Actor, error) {
	if userName == "" {
		return domain.Actor{}, fmt.Errorf("--as is required")
	}
	ind, err := (&accountsvc.Service{DB: db}).GetByUserName(ctx, userName)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("user %q: %w", userName, err)
	}
	return ind.Actor(), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode is 0 on success, 2 for a rejected request, 3 for a conflict
// with current state and 1 otherwise.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch response.StatusFor(err) {
	case http.StatusConflict:
		return 3
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return 2
	}
	return 1
}

// Main runs the command tree and exits the process.
func Main() {
	err := Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode(err))
}
