package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidTransition = errors.New("invalid subscription status transition")
	ErrDuplicateEvent    = errors.New("webhook event already processed")
)

// validTransitions encodes the billing state machine. locked is absent on
// purpose: it is entered and exited only through the admin Lock/Unlock
// calls, never by webhooks or the sweep.
var validTransitions = map[models.SubscriptionStatus][]models.SubscriptionStatus{
	models.StatusActive:    {models.StatusGrace, models.StatusCancelled},
	models.StatusGrace:     {models.StatusActive, models.StatusSuspended, models.StatusCancelled},
	models.StatusSuspended: {models.StatusActive, models.StatusCancelled},
	models.StatusCancelled: {models.StatusActive},
}

// ValidTransition reports whether the billing machinery may move a
// subscription from one status to another.
func ValidTransition(from, to models.SubscriptionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EffectiveStatus resolves the status a subscription is really in right now,
// covering periods that lapsed before any webhook or sweep noticed. A paid
// tier past its period end is effectively in grace until the grace window
// closes; past that it is effectively suspended even if the sweep has not
// run yet. Starter has no billing cycle and is always effectively active.
func EffectiveStatus(sub *models.Subscription, now time.Time, graceWindow time.Duration) models.SubscriptionStatus {
	switch sub.Status {
	case models.StatusLocked, models.StatusSuspended, models.StatusCancelled:
		return sub.Status
	case models.StatusGrace:
		if sub.GracePeriodEnd != nil && now.After(*sub.GracePeriodEnd) {
			return models.StatusSuspended
		}
		return models.StatusGrace
	case models.StatusActive:
		if sub.Tier == plans.TierStarter || sub.PeriodEnd.IsZero() {
			return models.StatusActive
		}
		if now.After(sub.PeriodEnd) {
			if now.After(sub.PeriodEnd.Add(graceWindow)) {
				return models.StatusSuspended
			}
			return models.StatusGrace
		}
		return models.StatusActive
	default:
		// Unknown persisted status: fail closed.
		return models.StatusSuspended
	}
}

// HasAccess reports whether an effective status permits gated actions.
// Grace keeps full access; cancelled users keep access on starter limits.
func HasAccess(status models.SubscriptionStatus) bool {
	switch status {
	case models.StatusActive, models.StatusGrace, models.StatusCancelled:
		return true
	default:
		return false
	}
}

// Payment gateway webhook event types this service consumes.
const (
	EventCheckoutCompleted   = "checkout_completed"
	EventSubscriptionUpdated = "subscription_updated"
	EventSubscriptionDeleted = "subscription_deleted"
	EventPaymentFailed       = "payment_failed"
)

// GatewayEvent is a parsed payment gateway webhook.
type GatewayEvent struct {
	EventID     string
	Type        string
	UserID      uuid.UUID
	Tier        plans.Tier
	PeriodStart time.Time
	PeriodEnd   time.Time
	GatewayRef  string
	RawPayload  []byte
}

// SubscriptionService owns subscription rows: the state machine, webhook
// event application and the scheduled expiry sweep.
type SubscriptionService struct {
	db          *gorm.DB
	graceWindow time.Duration
	now         func() time.Time
}

func NewSubscriptionService(db *gorm.DB, graceWindow time.Duration) *SubscriptionService {
	return &SubscriptionService{db: db, graceWindow: graceWindow, now: time.Now}
}

// Current returns the user's subscription, creating the starter/active
// default on first touch so every user always has exactly one row.
func (s *SubscriptionService) Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return s.current(s.db.WithContext(ctx), userID)
}

func (s *SubscriptionService) current(db *gorm.DB, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.Subscription{
			ID:     uuid.New(),
			UserID: userID,
			Tier:   plans.TierStarter,
			Status: models.StatusActive,
		}
		if err := db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("failed to create default subscription: %w", err)
		}
		return &sub, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	return &sub, nil
}

// ApplyEvent records and applies one gateway webhook. Replayed event IDs
// return ErrDuplicateEvent and change nothing. The record and the state
// change commit together: if applying fails, the event row rolls back too,
// so a gateway retry of the same event ID is reapplied rather than being
// misread as a replay.
func (s *SubscriptionService) ApplyEvent(ctx context.Context, evt GatewayEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.WebhookEvent{
			ID:        uuid.New(),
			EventID:   evt.EventID,
			EventType: evt.Type,
			UserID:    evt.UserID,
			Payload:   datatypes.JSON(evt.RawPayload),
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEvent
			}
			return fmt.Errorf("failed to record webhook event: %w", err)
		}

		switch evt.Type {
		case EventCheckoutCompleted:
			return s.applyCheckout(tx, evt)
		case EventSubscriptionUpdated:
			return s.applyRenewal(tx, evt)
		case EventSubscriptionDeleted:
			return s.cancel(tx, evt.UserID)
		case EventPaymentFailed:
			return s.applyPaymentFailure(tx, evt.UserID)
		default:
			slog.Warn("ignoring unknown webhook event type", "type", evt.Type, "event_id", evt.EventID)
			return nil
		}
	})
}

// applyCheckout handles a first purchase or an upgrade: the tier changes and
// a fresh paid period opens.
func (s *SubscriptionService) applyCheckout(db *gorm.DB, evt GatewayEvent) error {
	if !evt.Tier.Valid() {
		return fmt.Errorf("checkout for %s: %w: %q", evt.UserID, plans.ErrUnknownTier, evt.Tier)
	}
	sub, err := s.current(db, evt.UserID)
	if err != nil {
		return err
	}
	updates := checkoutUpdates(sub.Status, evt)
	if _, ok := updates["status"]; !ok {
		slog.Warn("checkout recorded without status change", "user_id", evt.UserID, "status", sub.Status)
	}
	return db.Model(sub).Updates(updates).Error
}

// checkoutUpdates builds the column updates for a checkout event. A locked
// subscription keeps its status: only the admin unlock may exit locked, so
// the payment is bookkept (tier, period, gateway ref) without restoring
// access.
func checkoutUpdates(status models.SubscriptionStatus, evt GatewayEvent) map[string]interface{} {
	updates := map[string]interface{}{
		"tier":         evt.Tier,
		"period_start": evt.PeriodStart,
		"period_end":   evt.PeriodEnd,
		"gateway_ref":  evt.GatewayRef,
	}
	if status == models.StatusActive || ValidTransition(status, models.StatusActive) {
		updates["status"] = models.StatusActive
		updates["grace_period_end"] = nil
	}
	return updates
}

// applyRenewal handles a successful renewal or late payment: active again,
// period rolls forward, grace marker cleared.
func (s *SubscriptionService) applyRenewal(db *gorm.DB, evt GatewayEvent) error {
	sub, err := s.current(db, evt.UserID)
	if err != nil {
		return err
	}
	if sub.Status != models.StatusActive && !ValidTransition(sub.Status, models.StatusActive) {
		return fmt.Errorf("renewal for %s in status %s: %w", evt.UserID, sub.Status, ErrInvalidTransition)
	}
	updates := map[string]interface{}{
		"status":           models.StatusActive,
		"period_start":     evt.PeriodStart,
		"period_end":       evt.PeriodEnd,
		"grace_period_end": nil,
	}
	if evt.Tier.Valid() {
		updates["tier"] = evt.Tier
	}
	return db.Model(sub).Updates(updates).Error
}

// applyPaymentFailure moves an active paid subscription into grace without
// waiting for the sweep to notice the lapsed period end.
func (s *SubscriptionService) applyPaymentFailure(db *gorm.DB, userID uuid.UUID) error {
	sub, err := s.current(db, userID)
	if err != nil {
		return err
	}
	if sub.Tier == plans.TierStarter || sub.Status != models.StatusActive {
		return nil
	}
	graceEnd := sub.PeriodEnd.Add(s.graceWindow)
	return db.Model(sub).Updates(map[string]interface{}{
		"status":           models.StatusGrace,
		"grace_period_end": graceEnd,
	}).Error
}

// Cancel is the user-initiated cancellation: tier drops to starter and the
// grace marker is cleared in the same update.
func (s *SubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) error {
	return s.cancel(s.db.WithContext(ctx), userID)
}

func (s *SubscriptionService) cancel(db *gorm.DB, userID uuid.UUID) error {
	sub, err := s.current(db, userID)
	if err != nil {
		return err
	}
	if sub.Status == models.StatusCancelled {
		return nil
	}
	if !ValidTransition(sub.Status, models.StatusCancelled) {
		return fmt.Errorf("cancel for %s in status %s: %w", userID, sub.Status, ErrInvalidTransition)
	}
	return db.Model(sub).Updates(map[string]interface{}{
		"status":           models.StatusCancelled,
		"tier":             plans.TierStarter,
		"grace_period_end": nil,
	}).Error
}

// Lock places an administrative hold for policy violations.
func (s *SubscriptionService) Lock(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.Current(ctx, userID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(sub).Updates(map[string]interface{}{
		"status":           models.StatusLocked,
		"grace_period_end": nil,
	}).Error
}

// Unlock releases an administrative hold back to active.
func (s *SubscriptionService) Unlock(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.Current(ctx, userID)
	if err != nil {
		return err
	}
	if sub.Status != models.StatusLocked {
		return fmt.Errorf("unlock for %s in status %s: %w", userID, sub.Status, ErrInvalidTransition)
	}
	return s.db.WithContext(ctx).Model(sub).Update("status", models.StatusActive).Error
}

// SweepResult reports what one expiry sweep run did.
type SweepResult struct {
	SuspendedCount int `json:"suspended_count"`
	NotifiedCount  int `json:"notified_count"`
}

// RunExpirySweep drives the time-based transitions in bulk: lapsed active
// paid subscriptions enter grace, and grace subscriptions past their window
// are suspended. Each affected user gets a notification row.
func (s *SubscriptionService) RunExpirySweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	var result SweepResult

	var lapsed []models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND tier <> ? AND period_end < ?", models.StatusActive, plans.TierStarter, now).
		Find(&lapsed).Error
	if err != nil {
		return result, fmt.Errorf("sweep: failed to list lapsed subscriptions: %w", err)
	}
	for i := range lapsed {
		sub := &lapsed[i]
		graceEnd := sub.PeriodEnd.Add(s.graceWindow)
		err := s.db.WithContext(ctx).Model(sub).Updates(map[string]interface{}{
			"status":           models.StatusGrace,
			"grace_period_end": graceEnd,
		}).Error
		if err != nil {
			slog.Error("sweep: failed to move subscription to grace", "user_id", sub.UserID, "error", err)
			continue
		}
		s.notify(ctx, sub.UserID, "renewal_due",
			"Your subscription payment is overdue. Renew before "+graceEnd.Format("2 Jan 2006")+" to keep full access.")
		result.NotifiedCount++
	}

	var expired []models.Subscription
	err = s.db.WithContext(ctx).
		Where("status = ? AND grace_period_end < ?", models.StatusGrace, now).
		Find(&expired).Error
	if err != nil {
		return result, fmt.Errorf("sweep: failed to list expired subscriptions: %w", err)
	}
	for i := range expired {
		sub := &expired[i]
		err := s.db.WithContext(ctx).Model(sub).Updates(map[string]interface{}{
			"status":           models.StatusSuspended,
			"grace_period_end": nil,
		}).Error
		if err != nil {
			slog.Error("sweep: failed to suspend subscription", "user_id", sub.UserID, "error", err)
			continue
		}
		result.SuspendedCount++
		s.notify(ctx, sub.UserID, "account_suspended",
			"Your subscription has been suspended. Renew your plan to restore access.")
		result.NotifiedCount++
	}

	slog.Info("expiry sweep completed",
		"moved_to_grace", len(lapsed), "suspended", result.SuspendedCount, "notified", result.NotifiedCount)
	return result, nil
}

func (s *SubscriptionService) notify(ctx context.Context, userID uuid.UUID, kind, message string) {
	n := models.Notification{ID: uuid.New(), UserID: userID, Kind: kind, Message: message}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		slog.Error("failed to queue notification", "user_id", userID, "kind", kind, "error", err)
	}
}
