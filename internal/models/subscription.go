package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// SubscriptionStatus is the billing state of a user's subscription.
type SubscriptionStatus string

const (
	// StatusActive means the current billing period is paid up.
	StatusActive SubscriptionStatus = "active"
	// StatusGrace means the period lapsed but the grace window is still open.
	StatusGrace SubscriptionStatus = "grace"
	// StatusSuspended means the grace window closed without renewal.
	StatusSuspended SubscriptionStatus = "suspended"
	// StatusLocked is an administrative hold for policy violations. It is
	// never entered or exited by the billing sweep.
	StatusLocked SubscriptionStatus = "locked"
	// StatusCancelled means the user cancelled; tier is reset to starter.
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is one user's billing record. Rows are never hard-deleted so
// billing disputes can be reconstructed. GracePeriodEnd is non-nil only while
// Status is grace.
type Subscription struct {
	ID             uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Tier           plans.Tier         `gorm:"size:20;not null;default:'starter'" json:"tier"`
	Status         SubscriptionStatus `gorm:"size:20;not null;default:'active';index" json:"status"`
	PeriodStart    time.Time          `json:"period_start"`
	PeriodEnd      time.Time          `json:"period_end"`
	GracePeriodEnd *time.Time         `json:"grace_period_end,omitempty"`
	GatewayRef     string             `gorm:"size:255;index" json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	User           User               `gorm:"foreignKey:UserID" json:"-"`
}
