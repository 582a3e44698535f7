package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/robfig/cron/v3"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/config"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/database"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/handlers"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/logging"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/routes"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.WebhookSecret == "" {
		slog.Error("BILLING_WEBHOOK_SECRET environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Billing core
	catalog := plans.Default()
	graceWindow := cfg.GraceWindow()
	subscriptionService := billing.NewSubscriptionService(db, graceWindow)
	usageService := billing.NewUsageService(db)
	addonService := billing.NewAddonService(db, catalog)
	evaluator := billing.NewEvaluator(catalog, subscriptionService, usageService, addonService, graceWindow, cfg.StoreTimeout)
	guard := middleware.NewEntitlements(evaluator, subscriptionService, graceWindow, cfg.UpgradeURL)

	// Domain services
	authService := services.NewAuthService(db, cfg)
	websiteService := services.NewWebsiteService(db, evaluator)
	menuService := services.NewMenuService(db, websiteService, evaluator)
	deliveryService := services.NewDeliveryService(db, websiteService, evaluator)
	aiService := services.NewAIService(cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(db)
	websiteHandler := handlers.NewWebsiteHandler(websiteService, cfg.UpgradeURL)
	menuHandler := handlers.NewMenuHandler(menuService, cfg.UpgradeURL)
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService, cfg.UpgradeURL)
	aiHandler := handlers.NewAIHandler(aiService, websiteService, guard)
	billingHandler := handlers.NewBillingHandler(subscriptionService, addonService, evaluator, catalog, graceWindow)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg.WebhookSecret)
	adminHandler := handlers.NewAdminHandler(db, subscriptionService)

	// Expiry sweep on a cron schedule
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := subscriptionService.RunExpirySweep(ctx); err != nil {
			slog.Error("scheduled expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, db, guard,
		authHandler, healthHandler, websiteHandler, menuHandler,
		deliveryHandler, aiHandler, billingHandler, webhookHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	sweepCtx := scheduler.Stop()
	<-sweepCtx.Done()

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
