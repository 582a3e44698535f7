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

// AddonService is the Postgres-backed AddonStore plus purchase bookkeeping.
type AddonService struct {
	db      *gorm.DB
	catalog *plans.Catalog
}

func NewAddonService(db *gorm.DB, catalog *plans.Catalog) *AddonService {
	return &AddonService{db: db, catalog: catalog}
}

func (s *AddonService) Balance(ctx context.Context, userID uuid.UUID, addon plans.AddonType) (int, error) {
	var credit models.AddonCredit
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND addon_type = ?", userID, addon).
		First(&credit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read addon balance: %w", err)
	}
	return credit.Balance, nil
}

func (s *AddonService) Credit(ctx context.Context, userID uuid.UUID, addon plans.AddonType, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	var balance int
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO addon_credits (id, user_id, addon_type, balance, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, now(), now())
		ON CONFLICT (user_id, addon_type)
		DO UPDATE SET balance = addon_credits.balance + ?, updated_at = now()
		RETURNING balance`,
		userID, addon, amount, amount).Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("failed to credit addon: %w", err)
	}
	return balance, nil
}

func (s *AddonService) ConsumeOne(ctx context.Context, userID uuid.UUID, addon plans.AddonType) (bool, error) {
	// balance > 0 guards the decrement in the same statement; RowsAffected
	// tells us whether this request won the credit.
	result := s.db.WithContext(ctx).Model(&models.AddonCredit{}).
		Where("user_id = ? AND addon_type = ? AND balance > 0", userID, addon).
		UpdateColumn("balance", gorm.Expr("balance - 1"))
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume addon credit: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Purchase credits an addon after a paid checkout and records the purchase
// for the ledger history. Returns the new balance.
func (s *AddonService) Purchase(ctx context.Context, userID uuid.UUID, addon plans.AddonType, quantity int) (int, error) {
	price, err := s.catalog.AddonPrice(addon)
	if err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("purchase quantity must be positive, got %d", quantity)
	}

	var balance int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase := models.AddonPurchase{
			ID:        uuid.New(),
			UserID:    userID,
			AddonType: addon,
			Quantity:  quantity,
			PriceSen:  price * int64(quantity),
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("failed to record addon purchase: %w", err)
		}
		return tx.Raw(`
			INSERT INTO addon_credits (id, user_id, addon_type, balance, created_at, updated_at)
			VALUES (gen_random_uuid(), ?, ?, ?, now(), now())
			ON CONFLICT (user_id, addon_type)
			DO UPDATE SET balance = addon_credits.balance + ?, updated_at = now()
			RETURNING balance`,
			userID, addon, quantity, quantity).Scan(&balance).Error
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
