package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

type fakeChecker struct {
	result    billing.LimitResult
	committed []billing.Action
}

func (f *fakeChecker) CheckLimit(_ context.Context, _ uuid.UUID, _ billing.Action) billing.LimitResult {
	return f.result
}

func (f *fakeChecker) CommitUsage(_ context.Context, _ uuid.UUID, action billing.Action, _ bool) error {
	f.committed = append(f.committed, action)
	return nil
}

type fakeResolver struct {
	sub *models.Subscription
	err error
}

func (f *fakeResolver) Current(_ context.Context, _ uuid.UUID) (*models.Subscription, error) {
	return f.sub, f.err
}

// withTestUser injects the JWT claims local the way jwtware does, so the
// guard sees an authenticated request without a real token round trip.
func withTestUser(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": userID.String(),
		})
		c.Locals("user", token)
		return c.Next()
	}
}

func newGuardApp(userID uuid.UUID, route func(api fiber.Router)) *fiber.App {
	app := fiber.New()
	api := app.Group("/", withTestUser(userID))
	route(api)
	return app
}

const testUpgradeURL = "https://binaapp.my/upgrade"

func TestRequireActivePassesActiveSubscription(t *testing.T) {
	userID := uuid.New()
	sub := &models.Subscription{
		UserID: userID, Tier: plans.TierBasic, Status: models.StatusActive,
		PeriodEnd: time.Now().Add(24 * time.Hour),
	}
	guard := NewEntitlements(&fakeChecker{}, &fakeResolver{sub: sub}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Get("/gated", guard.RequireActive(), func(c *fiber.Ctx) error {
			got, ok := SubscriptionFrom(c)
			require.True(t, ok)
			assert.Equal(t, userID, got.UserID)
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireActiveDeniesSuspended(t *testing.T) {
	userID := uuid.New()
	sub := &models.Subscription{UserID: userID, Tier: plans.TierBasic, Status: models.StatusSuspended}
	guard := NewEntitlements(&fakeChecker{}, &fakeResolver{sub: sub}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Get("/gated", guard.RequireActive(), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "subscription_expired", body["error"])
	assert.Equal(t, testUpgradeURL, body["upgrade_url"])
}

func TestRequireActiveFailsClosedOnStoreError(t *testing.T) {
	userID := uuid.New()
	guard := NewEntitlements(&fakeChecker{}, &fakeResolver{err: errors.New("db down")}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Get("/gated", guard.RequireActive(), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "db down", "internal errors must not leak to clients")
}

func TestCheckLimitDeniesWithStructuredBody(t *testing.T) {
	userID := uuid.New()
	checker := &fakeChecker{result: billing.LimitResult{
		Reason:       billing.DenyLimitReached,
		CurrentUsage: 3,
		Limit:        3,
		CanBuyAddon:  true,
	}}
	guard := NewEntitlements(checker, &fakeResolver{}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Post("/ai", guard.CheckLimit(billing.ActionGenerateAIHero), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/ai", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Error        string `json:"error"`
		CurrentUsage *int   `json:"current_usage"`
		Limit        *int   `json:"limit"`
		CanBuyAddon  *bool  `json:"can_buy_addon"`
		UpgradeURL   string `json:"upgrade_url"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "limit_reached", body.Error)
	require.NotNil(t, body.CurrentUsage)
	assert.Equal(t, 3, *body.CurrentUsage)
	require.NotNil(t, body.Limit)
	assert.Equal(t, 3, *body.Limit)
	require.NotNil(t, body.CanBuyAddon)
	assert.True(t, *body.CanBuyAddon)
	assert.Equal(t, testUpgradeURL, body.UpgradeURL)
}

func TestCheckLimitSystemErrorReturns503(t *testing.T) {
	userID := uuid.New()
	checker := &fakeChecker{result: billing.LimitResult{Reason: billing.DenySystemError}}
	guard := NewEntitlements(checker, &fakeResolver{}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Post("/ai", guard.CheckLimit(billing.ActionGenerateAIHero), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/ai", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestCommitAfterSuccess(t *testing.T) {
	userID := uuid.New()
	checker := &fakeChecker{result: billing.LimitResult{Allowed: true, CurrentUsage: 1, Limit: 20}}
	guard := NewEntitlements(checker, &fakeResolver{}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Post("/ai", guard.CheckLimit(billing.ActionGenerateAIHero), func(c *fiber.Ctx) error {
			result, ok := LimitResultFrom(c)
			require.True(t, ok)
			assert.True(t, result.Allowed)
			require.NoError(t, guard.Commit(c, billing.ActionGenerateAIHero))
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/ai", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []billing.Action{billing.ActionGenerateAIHero}, checker.committed)
}

func TestCommitSkipsUnlimited(t *testing.T) {
	userID := uuid.New()
	checker := &fakeChecker{result: billing.LimitResult{Allowed: true, Unlimited: true}}
	guard := NewEntitlements(checker, &fakeResolver{}, 7*24*time.Hour, testUpgradeURL)

	app := newGuardApp(userID, func(api fiber.Router) {
		api.Post("/ai", guard.CheckLimit(billing.ActionGenerateAIImage), func(c *fiber.Ctx) error {
			require.NoError(t, guard.Commit(c, billing.ActionGenerateAIImage))
			return c.SendStatus(fiber.StatusOK)
		})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/ai", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, checker.committed, "unlimited allowances must not record usage")
}
