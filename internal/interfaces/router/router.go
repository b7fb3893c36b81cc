package router

import (
	"context"

	accountsvc "coopshares-backend/internal/application/accounts"
	allocsvc "coopshares-backend/internal/application/allocation"
	coopsvc "coopshares-backend/internal/application/coops"
	healthsvc "coopshares-backend/internal/application/health"
	holdsvc "coopshares-backend/internal/application/holdings"
	mktsvc "coopshares-backend/internal/application/marketplace"
	reportsvc "coopshares-backend/internal/application/reports"
	"coopshares-backend/internal/config"
	"coopshares-backend/internal/constants"
	"coopshares-backend/internal/holdings"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/database"
	accounthandler "coopshares-backend/internal/interfaces/handlers/accounts"
	authhandler "coopshares-backend/internal/interfaces/handlers/auth"
	coophandler "coopshares-backend/internal/interfaces/handlers/coops"
	healthhandler "coopshares-backend/internal/interfaces/handlers/health"
	mkthandler "coopshares-backend/internal/interfaces/handlers/marketplace"
	projecthandler "coopshares-backend/internal/interfaces/handlers/projects"
	reporthandler "coopshares-backend/internal/interfaces/handlers/reports"
	"coopshares-backend/internal/listingevents"
	"coopshares-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const lockProbeKey = "health:probe"

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// NewLocker builds the coordination locker selected by cfg.
func NewLocker(cfg *config.Config, rdb *redis.Client) coordination.Locker {
	if cfg.LockBackend == config.LockBackendRedis && rdb != nil {
		return coordination.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait)
	}
	return coordination.NewLocalLocker()
}

func lockProbe(l coordination.Locker) healthsvc.Probe {
	return func(ctx context.Context) error {
		release, err := coordination.Acquire(ctx, l, lockProbeKey)
		if err != nil {
			return err
		}
		release()
		return nil
	}
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	locker := NewLocker(cfg, rdb)
	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		Probes:         map[string]healthsvc.Probe{"locks": lockProbe(locker)},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Post("/health/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/ready", hh.Ready)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return nil, nil, nil, err
			}
		}
		hh.DB = &gormDBPinger{db: db}
	}

	var accounts *accountsvc.Service
	var authenticator authhandler.Authenticator
	if db != nil {
		accounts = &accountsvc.Service{DB: db}
		authenticator = accounts
	}
	ah := &authhandler.Handlers{Accounts: authenticator, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db == nil {
		log.Warn().Msg("DATABASE_URL not set; only health and auth routes are mounted")
		return app, nil, rdb, nil
	}

	coops := &coopsvc.Service{DB: db, Locker: locker}
	projects := &allocsvc.Service{DB: db, Locker: locker}
	market := &mktsvc.Service{DB: db, Locker: locker}
	positions := &holdsvc.Service{DB: db}
	reports := &reportsvc.Service{DB: db, Summaries: coops, Holdings: positions}

	// Accounts and dashboards
	acch := &accounthandler.Handlers{Service: accounts, Coops: coops, Holdings: positions, Rdb: rdb}
	app.Post("/api/v1/accounts/register", acch.Register)
	accg := app.Group("/api/v1/accounts", middleware.RequireAuth())
	accg.Get("/me", acch.Profile)
	dg := app.Group("/api/v1/dashboard", middleware.RequireAuth())
	dg.Get("/", acch.Dashboard)
	dg.Patch("/mode", acch.SwitchMode)
	app.Post("/api/v1/board/members", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageBoard), acch.AddBoardMember)

	// Cooperatives
	ch := &coophandler.Handlers{Service: coops}
	cg := app.Group("/api/v1/coops")
	cg.Get("/", ch.List)
	cg.Get("/:id", ch.Get)
	cg.Get("/:id/summary", ch.Summary)
	cg.Post("/", middleware.RequireAuth(), ch.Create)
	cg.Patch("/:id", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageCooperative), ch.Update)
	cg.Post("/:id/shares", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageCooperative), ch.IssueShares)

	// Projects
	ph := &projecthandler.Handlers{Service: projects}
	pg := app.Group("/api/v1/projects")
	pg.Get("/", ph.List)
	pg.Get("/:id", ph.Get)
	pg.Get("/:id/contributions", ph.Contributions)
	pg.Post("/", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageProjects), ph.Create)
	pg.Post("/:id/activate", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageProjects), ph.Activate)
	pg.Post("/:id/cancel", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageProjects), ph.Cancel)
	pg.Post("/:id/finalize", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageProjects), ph.Finalize)
	pg.Post("/:id/contributions", middleware.RequireAuth(), ph.Contribute)

	// Marketplace
	mh := &mkthandler.Handlers{Service: market}
	mg := app.Group("/api/v1/marketplace")
	mg.Get("/listings", mh.AllListings)
	mg.Get("/listings/:id", mh.GetListing)
	mg.Get("/listings/:id/events", mh.ListingEvents)
	mg.Get("/coops/:coop_id/listings", mh.ListListings)
	mg.Post("/listings", middleware.RequireAuth(), mh.CreateListing)
	mg.Post("/listings/:id/cancel", middleware.RequireAuth(), mh.CancelListing)
	mg.Post("/listings/:id/buy", middleware.RequireAuth(), mh.BuyListing)
	mg.Post("/coops/:coop_id/primary", middleware.RequireAuth(), mh.BuyPrimary)
	mg.Post("/coops/:coop_id/buy", middleware.RequireAuth(), mh.Buy)

	// The caller's own positions
	holdh := &holdings.Handlers{Service: positions}
	leh := &listingevents.Handlers{Service: &listingevents.Service{DB: db}}
	me := app.Group("/api/v1/me", middleware.RequireAuth())
	me.Get("/holdings", holdh.ViewHoldings)
	me.Get("/holdings/:coop_id", holdh.ViewHolding)
	me.Get("/contributions", holdh.ViewContributions)
	me.Get("/listings", mh.MyListings)
	me.Get("/listing-events", leh.GetMyListingEvents)
	me.Get("/trades", mh.MyTrades)

	// Exports
	rh := &reporthandler.Handlers{Service: reports}
	rg := app.Group("/api/v1/reports", middleware.RequireAuth())
	rg.Get("/coops/:id/shareholders.:format", middleware.AuthorizePermission(constants.ViewReports), rh.CoopShareholders)
	rg.Get("/coops/:id/trades.:format", middleware.AuthorizePermission(constants.ViewReports), rh.CoopTrades)
	rg.Get("/coops/:id/summary.:format", middleware.AuthorizePermission(constants.ViewReports), rh.CoopSummary)
	rg.Get("/me/holdings.:format", rh.MyHoldings)
	rg.Get("/me/contributions.:format", rh.MyContributions)
	rg.Get("/me/trades.:format", rh.MyTrades)

	return app, db, rdb, nil
}
