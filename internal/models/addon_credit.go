package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// AddonCredit is a user's balance of one-shot purchased credits for an addon
// type. Balance is never persisted negative; consumption is a conditional
// UPDATE guarded by balance > 0.
type AddonCredit struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_addon_user_type,priority:1" json:"user_id"`
	AddonType plans.AddonType `gorm:"size:50;not null;uniqueIndex:idx_addon_user_type,priority:2" json:"addon_type"`
	Balance   int             `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AddonPurchase records one purchase event for the ledger history.
type AddonPurchase struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	AddonType plans.AddonType `gorm:"size:50;not null" json:"addon_type"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	PriceSen  int64           `gorm:"not null" json:"price_sen"`
	CreatedAt time.Time       `json:"created_at"`
}
