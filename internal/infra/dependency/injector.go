// Package dependency provides dependency injection for the application.
package dependency

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/summary/config"
	"github.com/finance-tracker/summary/internal/application/usecase/dashboard"
	"github.com/finance-tracker/summary/internal/infra/server/router"
	"github.com/finance-tracker/summary/internal/infra/store"
	"github.com/finance-tracker/summary/internal/integration/adapters"
	"github.com/finance-tracker/summary/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/summary/internal/integration/entrypoint/middleware"
)

// Injector holds all application dependencies.
type Injector struct {
	Config      *config.Config
	Store       *store.Backend
	RateLimiter *middleware.RateLimiter
	Router      *router.Router
}

// NewInjector creates a new dependency injector with all dependencies wired.
// redisClient may be nil, in which case rate limiting counters stay in memory.
// now may be nil to use the wall clock.
func NewInjector(
	cfg *config.Config,
	backend *store.Backend,
	redisClient *redis.Client,
	now func() time.Time,
) *Injector {
	// Create adapters/services
	tokenService := adapters.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)

	// Create dashboard use cases
	getSummaryUseCase := dashboard.NewGetSummaryUseCase(
		backend.Repository,
		backend.Validator,
		now,
		dashboard.SummaryOptions{
			IncomeWindowDays:  cfg.Dashboard.IncomeWindowDays,
			ExpenseWindowDays: cfg.Dashboard.ExpenseWindowDays,
			RecentLimit:       cfg.Dashboard.RecentLimit,
		},
	)

	// Create controllers
	healthController := controller.NewHealthController(backend.HealthCheck, backend.Driver)
	dashboardController := controller.NewDashboardController(getSummaryUseCase)

	// Create middleware
	// Use higher rate limits for E2E/test environments to prevent flaky tests
	var rateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "e2e" || cfg.Server.Environment == "test" {
		rateLimiter = middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
	} else {
		rateLimiter = middleware.NewRateLimiterWithConfig(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	if redisClient != nil {
		rateLimiter.WithRedis(redisClient)
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(healthController, dashboardController, rateLimiter, authMiddleware)

	return &Injector{
		Config:      cfg,
		Store:       backend,
		RateLimiter: rateLimiter,
		Router:      r,
	}
}
