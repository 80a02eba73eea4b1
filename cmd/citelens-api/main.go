// Package main is the entry point for the citelens-api server.
// Note: Accounts, sessions, and billing live in the dashboard's auth
// system; this API trusts its JWTs and keys everything on the sub claim.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/citelens/citelens-api/internal/config"
	"github.com/citelens/citelens-api/internal/constants"
	"github.com/citelens/citelens-api/internal/database"
	"github.com/citelens/citelens-api/internal/http/handlers"
	"github.com/citelens/citelens-api/internal/http/mw"
	"github.com/citelens/citelens-api/internal/llm"
	"github.com/citelens/citelens-api/internal/logging"
	"github.com/citelens/citelens-api/internal/repository"
	"github.com/citelens/citelens-api/internal/service"
	"github.com/citelens/citelens-api/internal/version"
)

func main() {
	// Initialize logger with TTY detection and format control
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting citelens-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := logging.LoadFilters(cfg.LogFiltersPath, logger); err != nil {
		logger.Warn("failed to load log filters", "error", err)
	}

	// Env-driven plan cap overrides, applied before any gate reads the table
	constants.LoadTierOverrides(logger)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and the provider registry
	repos := repository.NewRepositories(db)
	registry := llm.InitRegistry(cfg, logger)
	if len(registry.EnabledProviders()) == 0 {
		logger.Warn("no AI providers configured - audits will fail until a service key is set")
	}

	services, err := service.NewServices(cfg, repos, registry, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Periodically drop aged-out minute-window state
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				services.Gate.Prune()
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)

	// S3-backed IP blocklist (early in chain to reject bad actors quickly)
	if services.Storage.IsEnabled() && cfg.BlocklistBucket != "" {
		blocklist := mw.NewIPBlocklist(mw.BlocklistConfig{
			S3Client: services.Storage.Client(),
			Bucket:   cfg.BlocklistBucket,
			Key:      "config/blocklist.json",
			Logger:   logger,
		})
		router.Use(blocklist.Middleware())
		logger.Info("IP blocklist enabled", "bucket", cfg.BlocklistBucket)
	}

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Audit runs fan out to AI providers and crawl competitor homepages,
	// so they get a longer deadline than the rest of the API
	router.Use(mw.Timeout(mw.TimeoutConfig{
		Default:          constants.DefaultRequestTimeout,
		Extended:         constants.AuditRequestTimeout,
		ExtendedPatterns: []string{"/audits"},
	}))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Global rate limit by IP (fallback for unauthenticated requests)
	router.Use(httprate.LimitByIP(constants.GlobalIPRateLimitPerMinute, time.Minute))

	// Global concurrency throttle - prevent system overload
	router.Use(middleware.Throttle(100))

	// Main API with OpenAPI docs
	humaConfig := huma.DefaultConfig("CiteLens API", v.Version)
	humaConfig.Info.Description = "AI citation audit API: measures how often AI assistants cite a brand when buyers ask for recommendations."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Dashboard-issued JWT in the Authorization header.",
		},
	}
	api := humachi.New(router, humaConfig)

	// Config for routes registered on sub-routers (docs served by the main API)
	innerConfig := huma.DefaultConfig("CiteLens API", v.Version)
	innerConfig.DocsPath = ""
	innerConfig.OpenAPIPath = ""
	innerConfig.SchemasPath = ""

	// Health check (public, shown in docs)
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	// Kubernetes probes (hidden from docs - internal use only)
	hiddenAPI := humachi.New(router, innerConfig)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	huma.Get(hiddenAPI, "/readyz", handlers.NewReadyzHandler(db).Readyz)

	// Trial risk check (public: runs during signup, before any JWT exists)
	router.Group(func(r chi.Router) {
		r.Use(mw.ClientIP())
		r.Use(httprate.LimitByIP(10, time.Minute))

		trialAPI := humachi.New(r, innerConfig)
		huma.Post(trialAPI, "/api/v1/trial/check", handlers.NewTrialHandler(services.Trial).CheckTrial)
	})

	auditHandler := handlers.NewAuditHandler(services.Audit, repos.Audit, logger)

	// Protected read routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))

		protectedAPI := humachi.New(r, innerConfig)
		huma.Get(protectedAPI, "/api/v1/audits", auditHandler.ListAudits)
		huma.Get(protectedAPI, "/api/v1/audits/{id}", auditHandler.GetAudit)
		huma.Get(protectedAPI, "/api/v1/usage", handlers.NewUsageHandler(repos.Usage).GetUsage)
	})

	// Admin review surface
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))
		r.Use(mw.RequireAdmin())

		adminAPI := humachi.New(r, innerConfig)
		huma.Get(adminAPI, "/api/v1/admin/trials", handlers.NewAdminHandler(repos.Trial).ListTrials)
	})

	// Audit runs consume quota: both rate gates apply
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))
		r.Use(mw.AccountRateLimit(services.Gate))

		gatedAPI := humachi.New(r, innerConfig)
		huma.Post(gatedAPI, "/api/v1/audits", auditHandler.RunAudit)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: constants.AuditRequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"providers", registry.EnabledProviders(),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
