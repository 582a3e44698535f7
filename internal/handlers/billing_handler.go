package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// BillingHandler is the user-facing billing surface: subscription state,
// usage summary, addon purchases and cancellation.
type BillingHandler struct {
	subService   *billing.SubscriptionService
	addonService *billing.AddonService
	evaluator    *billing.Evaluator
	catalog      *plans.Catalog
	graceWindow  time.Duration
}

func NewBillingHandler(subService *billing.SubscriptionService, addonService *billing.AddonService, evaluator *billing.Evaluator, catalog *plans.Catalog, graceWindow time.Duration) *BillingHandler {
	return &BillingHandler{
		subService:   subService,
		addonService: addonService,
		evaluator:    evaluator,
		catalog:      catalog,
		graceWindow:  graceWindow,
	}
}

// Subscription returns the user's subscription with the lazily resolved
// status, so a lapsed-but-unswept row already reads as grace or suspended.
func (h *BillingHandler) Subscription(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	sub, err := h.subService.Current(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Service temporarily unavailable. Please try again shortly.",
		})
	}

	return c.JSON(dto.SubscriptionResponse{
		Tier:           sub.Tier,
		Status:         string(billing.EffectiveStatus(sub, time.Now(), h.graceWindow)),
		PeriodStart:    sub.PeriodStart,
		PeriodEnd:      sub.PeriodEnd,
		GracePeriodEnd: sub.GracePeriodEnd,
	})
}

// Usage returns all counters for the user's current tier and billing period.
func (h *BillingHandler) Usage(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	tier, resources, err := h.evaluator.UsageSummary(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Service temporarily unavailable. Please try again shortly.",
		})
	}

	return c.JSON(dto.UsageSummaryResponse{Tier: tier, Resources: resources})
}

func (h *BillingHandler) PurchaseAddon(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	var req dto.PurchaseAddonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	addon := plans.AddonType(req.AddonType)
	if _, err := h.catalog.AddonPrice(addon); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown addon type",
		})
	}

	balance, err := h.addonService.Purchase(c.UserContext(), userID, addon, req.Quantity)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to purchase addon",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseAddonResponse{
		AddonType: req.AddonType,
		Balance:   balance,
	})
}

// Cancel drops the user back to starter limits. Already-created resources
// are kept; further creation is checked against the starter plan.
func (h *BillingHandler) Cancel(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	if err := h.subService.Cancel(c.UserContext(), userID); err != nil {
		if errors.Is(err, billing.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Subscription cannot be cancelled in its current state",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to cancel subscription",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
