package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// UsageRecord is one quota counter, keyed by (user, resource, billing period).
// BillingPeriod is a UTC "2006-01" key for monthly-reset tiers or "lifetime"
// for accumulating tiers. Rows from past periods are kept for history.
// Count never goes below zero; increments and decrements are single
// conditional UPDATE statements, never read-modify-write.
type UsageRecord struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_res_period,priority:1" json:"user_id"`
	ResourceType  plans.ResourceType `gorm:"size:50;not null;uniqueIndex:idx_usage_user_res_period,priority:2" json:"resource_type"`
	BillingPeriod string             `gorm:"size:20;not null;uniqueIndex:idx_usage_user_res_period,priority:3" json:"billing_period"`
	Count         int                `gorm:"not null;default:0" json:"count"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
