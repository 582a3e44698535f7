package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"gorm.io/gorm"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

type MenuService struct {
	db           *gorm.DB
	websites     *WebsiteService
	entitlements *billing.Evaluator
}

func NewMenuService(db *gorm.DB, websites *WebsiteService, entitlements *billing.Evaluator) *MenuService {
	return &MenuService{db: db, websites: websites, entitlements: entitlements}
}

func (s *MenuService) Create(ctx context.Context, userID, websiteID uuid.UUID, name, description string, priceSen int64) (*models.MenuItem, billing.LimitResult, error) {
	// Ownership check before spending quota.
	if _, err := s.websites.Get(ctx, userID, websiteID); err != nil {
		return nil, billing.LimitResult{}, err
	}

	result := s.entitlements.CheckAndConsume(ctx, userID, billing.ActionAddMenuItem)
	if !result.Allowed {
		return nil, result, nil
	}

	item := models.MenuItem{
		ID:          uuid.New(),
		WebsiteID:   websiteID,
		UserID:      userID,
		Name:        name,
		Description: description,
		PriceSen:    priceSen,
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if !result.Unlimited {
			if rerr := s.entitlements.Refund(ctx, userID, billing.ActionAddMenuItem, result.UsingAddon); rerr != nil {
				slog.Error("failed to refund menu item quota", "user_id", userID, "error", rerr)
			}
		}
		return nil, result, fmt.Errorf("failed to create menu item: %w", err)
	}

	return &item, result, nil
}

func (s *MenuService) List(ctx context.Context, userID, websiteID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("website_id = ? AND user_id = ?", websiteID, userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (s *MenuService) Update(ctx context.Context, userID, itemID uuid.UUID, updates map[string]interface{}) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return &item, nil
}

func (s *MenuService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.MenuItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete menu item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMenuItemNotFound
	}
	if _, err := s.entitlements.ReleaseOnDelete(ctx, userID, billing.ActionDeleteMenuItem); err != nil {
		slog.Error("failed to release menu item quota", "user_id", userID, "error", err)
	}
	return nil
}
