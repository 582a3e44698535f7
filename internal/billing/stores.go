package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// SubscriptionStore resolves a user's current subscription row.
type SubscriptionStore interface {
	Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// UsageStore persists quota counters. All mutations are single atomic
// statements at the storage layer; a read-modify-write here is a defect
// because two concurrent requests must not both take the last slot.
type UsageStore interface {
	CurrentUsage(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error)
	// Increment adds one unconditionally and returns the new count.
	Increment(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error)
	// IncrementBelow adds one only while the counter is below limit.
	// ok is false when the counter was already at or over the limit.
	IncrementBelow(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string, limit int) (count int, ok bool, err error)
	// Decrement subtracts one, floored at zero, and returns the new count.
	Decrement(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error)
}

// AddonStore persists one-shot purchased credits.
type AddonStore interface {
	Balance(ctx context.Context, userID uuid.UUID, addon plans.AddonType) (int, error)
	Credit(ctx context.Context, userID uuid.UUID, addon plans.AddonType, amount int) (int, error)
	// ConsumeOne decrements the balance by one if it is positive. The
	// condition and the write are a single statement so the last credit
	// cannot be double-spent.
	ConsumeOne(ctx context.Context, userID uuid.UUID, addon plans.AddonType) (bool, error)
}
