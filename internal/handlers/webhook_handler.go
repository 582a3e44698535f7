package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// WebhookHandler ingests payment gateway events. The route is public but
// authenticated by a shared secret header; replayed events are acknowledged
// without being reapplied so the gateway stops retrying.
type WebhookHandler struct {
	subService *billing.SubscriptionService
	secret     string
}

func NewWebhookHandler(subService *billing.SubscriptionService, secret string) *WebhookHandler {
	return &WebhookHandler{subService: subService, secret: secret}
}

func (h *WebhookHandler) HandleBillingEvent(c *fiber.Ctx) error {
	if h.secret == "" || subtle.ConstantTimeCompare(
		[]byte(c.Get("X-Webhook-Secret")), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var payload dto.BillingWebhook
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}
	if payload.Event.ID == "" || payload.Event.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing event id or type",
		})
	}

	userID, err := uuid.Parse(payload.Event.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id in event",
		})
	}

	evt := billing.GatewayEvent{
		EventID:     payload.Event.ID,
		Type:        payload.Event.Type,
		UserID:      userID,
		Tier:        plans.Tier(payload.Event.Tier),
		PeriodStart: msToTime(payload.Event.PeriodStartMs),
		PeriodEnd:   msToTime(payload.Event.PeriodEndMs),
		GatewayRef:  payload.Event.GatewayRef,
		RawPayload:  c.Body(),
	}

	if err := h.subService.ApplyEvent(c.UserContext(), evt); err != nil {
		if errors.Is(err, billing.ErrDuplicateEvent) {
			// Ack replays so the gateway stops retrying.
			return c.JSON(fiber.Map{"received": true, "duplicate": true})
		}
		slog.Error("failed to apply billing webhook",
			"event_id", evt.EventID, "type", evt.Type, "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process event",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
