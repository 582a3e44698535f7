package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  models.Subscription
		want models.SubscriptionStatus
	}{
		{
			name: "active paid within period",
			sub: models.Subscription{
				Tier: plans.TierBasic, Status: models.StatusActive,
				PeriodEnd: future,
			},
			want: models.StatusActive,
		},
		{
			name: "starter ignores period end",
			sub: models.Subscription{
				Tier: plans.TierStarter, Status: models.StatusActive,
				PeriodEnd: now.Add(-365 * 24 * time.Hour),
			},
			want: models.StatusActive,
		},
		{
			name: "lapsed period resolves to grace before sweep runs",
			sub: models.Subscription{
				Tier: plans.TierBasic, Status: models.StatusActive,
				PeriodEnd: now.Add(-24 * time.Hour),
			},
			want: models.StatusGrace,
		},
		{
			name: "lapsed past grace window resolves to suspended",
			sub: models.Subscription{
				Tier: plans.TierBasic, Status: models.StatusActive,
				PeriodEnd: now.Add(-window - 24*time.Hour),
			},
			want: models.StatusSuspended,
		},
		{
			name: "grace within its window stays grace",
			sub: models.Subscription{
				Tier: plans.TierBasic, Status: models.StatusGrace,
				GracePeriodEnd: &future,
			},
			want: models.StatusGrace,
		},
		{
			name: "grace past its window resolves to suspended",
			sub: models.Subscription{
				Tier: plans.TierBasic, Status: models.StatusGrace,
				GracePeriodEnd: &past,
			},
			want: models.StatusSuspended,
		},
		{
			name: "suspended stays suspended",
			sub:  models.Subscription{Tier: plans.TierBasic, Status: models.StatusSuspended},
			want: models.StatusSuspended,
		},
		{
			name: "locked stays locked regardless of period",
			sub: models.Subscription{
				Tier: plans.TierPro, Status: models.StatusLocked,
				PeriodEnd: future,
			},
			want: models.StatusLocked,
		},
		{
			name: "cancelled stays cancelled",
			sub:  models.Subscription{Tier: plans.TierStarter, Status: models.StatusCancelled},
			want: models.StatusCancelled,
		},
		{
			name: "unknown persisted status fails closed",
			sub:  models.Subscription{Tier: plans.TierBasic, Status: "trialing"},
			want: models.StatusSuspended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(&tt.sub, now, window))
		})
	}
}

func TestHasAccess(t *testing.T) {
	assert.True(t, HasAccess(models.StatusActive))
	assert.True(t, HasAccess(models.StatusGrace))
	assert.True(t, HasAccess(models.StatusCancelled), "cancelled users keep starter access")
	assert.False(t, HasAccess(models.StatusSuspended))
	assert.False(t, HasAccess(models.StatusLocked))
}

func TestValidTransition(t *testing.T) {
	valid := []struct{ from, to models.SubscriptionStatus }{
		{models.StatusActive, models.StatusGrace},
		{models.StatusActive, models.StatusCancelled},
		{models.StatusGrace, models.StatusActive},
		{models.StatusGrace, models.StatusSuspended},
		{models.StatusSuspended, models.StatusActive},
		{models.StatusCancelled, models.StatusActive},
	}
	for _, tt := range valid {
		assert.True(t, ValidTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	invalid := []struct{ from, to models.SubscriptionStatus }{
		{models.StatusActive, models.StatusSuspended},
		{models.StatusSuspended, models.StatusGrace},
		// locked is entered and exited only by the admin calls
		{models.StatusActive, models.StatusLocked},
		{models.StatusLocked, models.StatusActive},
	}
	for _, tt := range invalid {
		assert.False(t, ValidTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCheckoutUpdates(t *testing.T) {
	evt := GatewayEvent{
		EventID:     "evt_checkout_1",
		Type:        EventCheckoutCompleted,
		UserID:      uuid.New(),
		Tier:        plans.TierBasic,
		PeriodStart: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		GatewayRef:  "sub_8821",
	}

	reactivating := []models.SubscriptionStatus{
		models.StatusActive, models.StatusGrace, models.StatusSuspended, models.StatusCancelled,
	}
	for _, status := range reactivating {
		t.Run(string(status)+" goes active", func(t *testing.T) {
			updates := checkoutUpdates(status, evt)
			assert.Equal(t, models.StatusActive, updates["status"])
			assert.Contains(t, updates, "grace_period_end")
			assert.Nil(t, updates["grace_period_end"])
			assert.Equal(t, plans.TierBasic, updates["tier"])
		})
	}

	t.Run("locked keeps its status", func(t *testing.T) {
		updates := checkoutUpdates(models.StatusLocked, evt)
		assert.NotContains(t, updates, "status", "a payment must not exit the admin-only locked state")
		assert.NotContains(t, updates, "grace_period_end")
		// payment bookkeeping still lands so the admin unlock restores the paid tier
		assert.Equal(t, plans.TierBasic, updates["tier"])
		assert.Equal(t, evt.PeriodEnd, updates["period_end"])
		assert.Equal(t, "sub_8821", updates["gateway_ref"])
	})
}
