package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/config"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/handlers"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	guard *middleware.Entitlements,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	websiteHandler *handlers.WebsiteHandler,
	menuHandler *handlers.MenuHandler,
	deliveryHandler *handlers.DeliveryHandler,
	aiHandler *handlers.AIHandler,
	billingHandler *handlers.BillingHandler,
	webhookHandler *handlers.WebhookHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Billing surface (JWT required, no active-subscription gate: suspended
	// users must still be able to see their state, buy addons and renew)
	billingGroup := api.Group("/billing", middleware.JWTProtected(cfg))
	billingGroup.Get("/subscription", billingHandler.Subscription)
	billingGroup.Get("/usage", billingHandler.Usage)
	billingGroup.Post("/addons", billingHandler.PurchaseAddon)
	billingGroup.Post("/cancel", billingHandler.Cancel)

	// Gated resource routes: JWT, then the subscription-status gate. Creation
	// endpoints run their limit checks inside the services.
	sites := api.Group("/websites", middleware.JWTProtected(cfg), guard.RequireActive())
	sites.Post("/", websiteHandler.Create)
	sites.Get("/", websiteHandler.List)
	sites.Get("/:id", websiteHandler.Get)
	sites.Put("/:id", websiteHandler.Update)
	sites.Delete("/:id", websiteHandler.Delete)

	sites.Post("/:websiteId/menu", menuHandler.Create)
	sites.Get("/:websiteId/menu", menuHandler.List)
	sites.Post("/:websiteId/zones", deliveryHandler.CreateZone)
	sites.Get("/:websiteId/zones", deliveryHandler.ListZones)

	menu := api.Group("/menu", middleware.JWTProtected(cfg), guard.RequireActive())
	menu.Put("/:id", menuHandler.Update)
	menu.Delete("/:id", menuHandler.Delete)

	zones := api.Group("/zones", middleware.JWTProtected(cfg), guard.RequireActive())
	zones.Delete("/:id", deliveryHandler.DeleteZone)

	riders := api.Group("/riders", middleware.JWTProtected(cfg), guard.RequireActive())
	riders.Post("/", deliveryHandler.CreateRider)
	riders.Get("/", deliveryHandler.ListRiders)
	riders.Delete("/:id", deliveryHandler.DeleteRider)

	// AI endpoints use the two-phase guard: the limit check runs before the
	// handler, usage is committed only after the provider call succeeds.
	ai := api.Group("/ai", middleware.JWTProtected(cfg), guard.RequireActive())
	ai.Post("/hero", guard.CheckLimit(billing.ActionGenerateAIHero), aiHandler.GenerateHero)
	ai.Post("/menu-image", guard.CheckLimit(billing.ActionGenerateAIImage), aiHandler.GenerateMenuImage)

	// Payment gateway webhook — shared-secret auth, no JWT
	webhooks := api.Group("/webhooks")
	webhooks.Post("/billing", webhookHandler.HandleBillingEvent)

	// Operator surface
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/users/:userId/lock", adminHandler.LockUser)
	admin.Post("/users/:userId/unlock", adminHandler.UnlockUser)
	admin.Post("/billing/sweep", adminHandler.RunSweep)
	admin.Get("/notifications", adminHandler.ListNotifications)
}
