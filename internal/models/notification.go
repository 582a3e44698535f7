package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an outbound message queued for a user (renewal reminders,
// suspension notices). Delivery fan-out happens outside this service.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind      string    `gorm:"size:50;not null" json:"kind"`
	Message   string    `gorm:"size:1000" json:"message"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
