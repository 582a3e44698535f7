package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEvent records every payment gateway event before it is applied, so
// replays can be detected and disputes reconstructed. EventID carries the
// gateway's idempotency key.
type WebhookEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventID   string         `gorm:"size:255;not null;uniqueIndex" json:"event_id"`
	EventType string         `gorm:"size:50;not null;index" json:"event_type"`
	UserID    uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
