package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
)

const limitResultKey = "limit_result"

// LimitChecker is the slice of the entitlement evaluator the guard needs.
type LimitChecker interface {
	CheckLimit(ctx context.Context, userID uuid.UUID, action billing.Action) billing.LimitResult
	CommitUsage(ctx context.Context, userID uuid.UUID, action billing.Action, usedAddon bool) error
}

// StatusResolver resolves the current subscription row for RequireActive.
type StatusResolver interface {
	Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// Entitlements is the request-time enforcement point in front of gated
// operations. RequireActive and CheckLimit compose; either can be used
// alone. Denials use the structured 403 body; store failures fail closed
// with a 503 and no internal details.
type Entitlements struct {
	checker     LimitChecker
	subs        StatusResolver
	graceWindow time.Duration
	upgradeURL  string
}

func NewEntitlements(checker LimitChecker, subs StatusResolver, graceWindow time.Duration, upgradeURL string) *Entitlements {
	return &Entitlements{checker: checker, subs: subs, graceWindow: graceWindow, upgradeURL: upgradeURL}
}

// RequireActive denies suspended, locked and lapsed subscriptions and passes
// the resolved subscription through request locals otherwise.
func (g *Entitlements) RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		sub, err := g.subs.Current(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "Service temporarily unavailable. Please try again shortly.",
			})
		}

		if !billing.HasAccess(billing.EffectiveStatus(sub, time.Now(), g.graceWindow)) {
			return c.Status(fiber.StatusForbidden).JSON(
				dto.DeniedResponse(billing.LimitResult{Reason: billing.DenySubscriptionExpired}, g.upgradeURL))
		}

		c.Locals("subscription", sub)
		return c.Next()
	}
}

// CheckLimit runs the entitlement evaluator for action before the handler.
// The result is stashed in locals; on plain Allowed the handler must call
// Commit after the protected operation succeeds, never before.
func (g *Entitlements) CheckLimit(action billing.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		result := g.checker.CheckLimit(c.UserContext(), userID, action)
		if !result.Allowed {
			if result.Reason == billing.DenySystemError {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
					Error: true, Message: "Service temporarily unavailable. Please try again shortly.",
				})
			}
			return c.Status(fiber.StatusForbidden).JSON(dto.DeniedResponse(result, g.upgradeURL))
		}

		c.Locals(limitResultKey, result)
		return c.Next()
	}
}

// Commit records the usage side effect of a successful gated operation that
// passed CheckLimit: addon consumption when the check granted an addon
// allowance, a plain increment otherwise. Unlimited allowances record
// nothing.
func (g *Entitlements) Commit(c *fiber.Ctx, action billing.Action) error {
	result, ok := LimitResultFrom(c)
	if ok && result.Unlimited {
		return nil
	}
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	return g.checker.CommitUsage(c.UserContext(), userID, action, result.UsingAddon)
}

// LimitResultFrom retrieves the check result stashed by CheckLimit.
func LimitResultFrom(c *fiber.Ctx) (billing.LimitResult, bool) {
	result, ok := c.Locals(limitResultKey).(billing.LimitResult)
	return result, ok
}

// SubscriptionFrom retrieves the subscription stashed by RequireActive.
func SubscriptionFrom(c *fiber.Ctx) (*models.Subscription, bool) {
	sub, ok := c.Locals("subscription").(*models.Subscription)
	return sub, ok
}
