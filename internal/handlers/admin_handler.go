package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"gorm.io/gorm"
)

// AdminHandler exposes the operator surface: manual lock/unlock holds, an
// on-demand expiry sweep and the notification feed.
type AdminHandler struct {
	db         *gorm.DB
	subService *billing.SubscriptionService
}

func NewAdminHandler(db *gorm.DB, subService *billing.SubscriptionService) *AdminHandler {
	return &AdminHandler{db: db, subService: subService}
}

func (h *AdminHandler) LockUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user id"})
	}

	if err := h.subService.Lock(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to lock subscription",
		})
	}
	return c.JSON(fiber.Map{"success": true, "status": models.StatusLocked})
}

func (h *AdminHandler) UnlockUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user id"})
	}

	if err := h.subService.Unlock(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "Subscription is not locked",
		})
	}
	return c.JSON(fiber.Map{"success": true, "status": models.StatusActive})
}

// RunSweep triggers the expiry sweep outside its schedule, typically after
// fixing a gateway outage that delayed renewal webhooks.
func (h *AdminHandler) RunSweep(c *fiber.Ctx) error {
	result, err := h.subService.RunExpirySweep(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Sweep failed: " + err.Error(),
		})
	}
	return c.JSON(result)
}

func (h *AdminHandler) ListNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := h.db.WithContext(c.UserContext()).Order("created_at DESC").Limit(limit)
	if userParam := c.Query("user_id"); userParam != "" {
		userID, err := uuid.Parse(userParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user id"})
		}
		query = query.Where("user_id = ?", userID)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list notifications",
		})
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}
