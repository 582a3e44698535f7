package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Website is one published site owned by a user. Creating one consumes a
// website quota slot; deleting one frees it.
type Website struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Slug      string         `gorm:"not null;size:100;uniqueIndex" json:"slug"`
	Template  string         `gorm:"size:50;default:'classic'" json:"template"`
	HeroText  string         `gorm:"type:text" json:"hero_text"`
	Published bool           `gorm:"default:false" json:"published"`
	Settings  datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
}

// MenuItem is one dish on a website's menu. Prices are in sen.
type MenuItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WebsiteID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"website_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"size:1000" json:"description"`
	PriceSen    int64          `gorm:"not null;default:0" json:"price_sen"`
	ImageURL    string         `gorm:"type:text" json:"image_url"`
	Available   bool           `gorm:"default:true" json:"available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Website     Website        `gorm:"foreignKey:WebsiteID" json:"-"`
}
