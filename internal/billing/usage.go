package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
	"gorm.io/gorm"
)

// UsageService is the Postgres-backed UsageStore. Every mutation is a single
// upsert or conditional UPDATE so concurrent requests serialize at the row.
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

func (s *UsageService) CurrentUsage(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error) {
	var rec models.UsageRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND resource_type = ? AND billing_period = ?", userID, res, period).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage: %w", err)
	}
	return rec.Count, nil
}

func (s *UsageService) Increment(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO usage_records (id, user_id, resource_type, billing_period, count, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, 1, now(), now())
		ON CONFLICT (user_id, resource_type, billing_period)
		DO UPDATE SET count = usage_records.count + 1, updated_at = now()
		RETURNING count`,
		userID, res, period).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return count, nil
}

func (s *UsageService) IncrementBelow(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string, limit int) (int, bool, error) {
	if limit <= 0 {
		return 0, false, nil
	}
	// The conditional upsert is the whole point: the count check and the
	// increment happen in one statement, so two requests racing for the
	// last slot cannot both win.
	var count int
	result := s.db.WithContext(ctx).Raw(`
		INSERT INTO usage_records (id, user_id, resource_type, billing_period, count, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, 1, now(), now())
		ON CONFLICT (user_id, resource_type, billing_period)
		DO UPDATE SET count = usage_records.count + 1, updated_at = now()
		WHERE usage_records.count < ?
		RETURNING count`,
		userID, res, period, limit).Scan(&count)
	if result.Error != nil {
		return 0, false, fmt.Errorf("failed to increment usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return count, true, nil
}

func (s *UsageService) Decrement(ctx context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error) {
	var count int
	result := s.db.WithContext(ctx).Raw(`
		UPDATE usage_records
		SET count = count - 1, updated_at = now()
		WHERE user_id = ? AND resource_type = ? AND billing_period = ? AND count > 0
		RETURNING count`,
		userID, res, period).Scan(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to decrement usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Already at the floor, or no counter yet for this period.
		return 0, nil
	}
	return count, nil
}
