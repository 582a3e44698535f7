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

var (
	ErrZoneNotFound  = errors.New("delivery zone not found")
	ErrRiderNotFound = errors.New("rider not found")
)

type DeliveryService struct {
	db           *gorm.DB
	websites     *WebsiteService
	entitlements *billing.Evaluator
}

func NewDeliveryService(db *gorm.DB, websites *WebsiteService, entitlements *billing.Evaluator) *DeliveryService {
	return &DeliveryService{db: db, websites: websites, entitlements: entitlements}
}

func (s *DeliveryService) CreateZone(ctx context.Context, userID, websiteID uuid.UUID, name, postcodes string, feeSen int64) (*models.DeliveryZone, billing.LimitResult, error) {
	if _, err := s.websites.Get(ctx, userID, websiteID); err != nil {
		return nil, billing.LimitResult{}, err
	}

	result := s.entitlements.CheckAndConsume(ctx, userID, billing.ActionAddZone)
	if !result.Allowed {
		return nil, result, nil
	}

	zone := models.DeliveryZone{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		UserID:    userID,
		Name:      name,
		Postcodes: postcodes,
		FeeSen:    feeSen,
	}
	if err := s.db.WithContext(ctx).Create(&zone).Error; err != nil {
		s.refund(ctx, userID, billing.ActionAddZone, result)
		return nil, result, fmt.Errorf("failed to create delivery zone: %w", err)
	}
	return &zone, result, nil
}

func (s *DeliveryService) ListZones(ctx context.Context, userID, websiteID uuid.UUID) ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	err := s.db.WithContext(ctx).
		Where("website_id = ? AND user_id = ?", websiteID, userID).
		Order("created_at ASC").
		Find(&zones).Error
	return zones, err
}

func (s *DeliveryService) DeleteZone(ctx context.Context, userID, zoneID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", zoneID, userID).Delete(&models.DeliveryZone{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete delivery zone: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrZoneNotFound
	}
	if _, err := s.entitlements.ReleaseOnDelete(ctx, userID, billing.ActionDeleteZone); err != nil {
		slog.Error("failed to release zone quota", "user_id", userID, "error", err)
	}
	return nil
}

func (s *DeliveryService) CreateRider(ctx context.Context, userID uuid.UUID, name, phone string) (*models.Rider, billing.LimitResult, error) {
	result := s.entitlements.CheckAndConsume(ctx, userID, billing.ActionAddRider)
	if !result.Allowed {
		return nil, result, nil
	}

	rider := models.Rider{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Phone:  phone,
		Active: true,
	}
	if err := s.db.WithContext(ctx).Create(&rider).Error; err != nil {
		s.refund(ctx, userID, billing.ActionAddRider, result)
		return nil, result, fmt.Errorf("failed to create rider: %w", err)
	}
	return &rider, result, nil
}

func (s *DeliveryService) ListRiders(ctx context.Context, userID uuid.UUID) ([]models.Rider, error) {
	var riders []models.Rider
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&riders).Error
	return riders, err
}

func (s *DeliveryService) DeleteRider(ctx context.Context, userID, riderID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", riderID, userID).Delete(&models.Rider{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete rider: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRiderNotFound
	}
	if _, err := s.entitlements.ReleaseOnDelete(ctx, userID, billing.ActionDeleteRider); err != nil {
		slog.Error("failed to release rider quota", "user_id", userID, "error", err)
	}
	return nil
}

func (s *DeliveryService) refund(ctx context.Context, userID uuid.UUID, action billing.Action, result billing.LimitResult) {
	if result.Unlimited {
		return
	}
	if err := s.entitlements.Refund(ctx, userID, action, result.UsingAddon); err != nil {
		slog.Error("failed to refund entitlement", "user_id", userID, "action", action, "error", err)
	}
}
