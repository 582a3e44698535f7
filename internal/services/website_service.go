package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"gorm.io/gorm"
)

var (
	ErrWebsiteNotFound = errors.New("website not found")
	ErrSlugTaken       = errors.New("website address already taken")
)

type WebsiteService struct {
	db           *gorm.DB
	entitlements *billing.Evaluator
}

func NewWebsiteService(db *gorm.DB, entitlements *billing.Evaluator) *WebsiteService {
	return &WebsiteService{db: db, entitlements: entitlements}
}

// Create consumes a website quota slot and then creates the site. The
// entitlement commit happens first via the atomic check-and-consume; if the
// insert fails afterwards the slot is refunded.
func (s *WebsiteService) Create(ctx context.Context, userID uuid.UUID, name, slug, template string) (*models.Website, billing.LimitResult, error) {
	result := s.entitlements.CheckAndConsume(ctx, userID, billing.ActionCreateWebsite)
	if !result.Allowed {
		return nil, result, nil
	}

	site := models.Website{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		Slug:     normalizeSlug(slug),
		Template: template,
	}

	if err := s.db.WithContext(ctx).Create(&site).Error; err != nil {
		s.refund(ctx, userID, billing.ActionCreateWebsite, result)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, result, ErrSlugTaken
		}
		return nil, result, fmt.Errorf("failed to create website: %w", err)
	}

	return &site, result, nil
}

func (s *WebsiteService) Get(ctx context.Context, userID, siteID uuid.UUID) (*models.Website, error) {
	var site models.Website
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", siteID, userID).First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWebsiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load website: %w", err)
	}
	return &site, nil
}

func (s *WebsiteService) List(ctx context.Context, userID uuid.UUID) ([]models.Website, error) {
	var sites []models.Website
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&sites).Error
	return sites, err
}

func (s *WebsiteService) Update(ctx context.Context, userID, siteID uuid.UUID, updates map[string]interface{}) (*models.Website, error) {
	site, err := s.Get(ctx, userID, siteID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(site).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update website: %w", err)
	}
	return site, nil
}

// Delete removes the site and frees its quota slot. Freeing capacity needs
// no entitlement check.
func (s *WebsiteService) Delete(ctx context.Context, userID, siteID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", siteID, userID).Delete(&models.Website{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete website: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWebsiteNotFound
	}
	if _, err := s.entitlements.ReleaseOnDelete(ctx, userID, billing.ActionDeleteWebsite); err != nil {
		slog.Error("failed to release website quota", "user_id", userID, "error", err)
	}
	return nil
}

func (s *WebsiteService) refund(ctx context.Context, userID uuid.UUID, action billing.Action, result billing.LimitResult) {
	if result.Unlimited {
		return
	}
	if err := s.entitlements.Refund(ctx, userID, action, result.UsingAddon); err != nil {
		slog.Error("failed to refund entitlement", "user_id", userID, "action", action, "error", err)
	}
}

func normalizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	return strings.ReplaceAll(slug, " ", "-")
}
