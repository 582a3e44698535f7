package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/services"
)

type DeliveryHandler struct {
	deliveryService *services.DeliveryService
	upgradeURL      string
}

func NewDeliveryHandler(deliveryService *services.DeliveryService, upgradeURL string) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService, upgradeURL: upgradeURL}
}

type createZoneRequest struct {
	Name      string `json:"name"`
	Postcodes string `json:"postcodes"`
	FeeSen    int64  `json:"fee_sen"`
}

func (h *DeliveryHandler) CreateZone(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	websiteID, err := uuid.Parse(c.Params("websiteId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	var req createZoneRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Name is required"})
	}

	zone, result, err := h.deliveryService.CreateZone(c.UserContext(), userID, websiteID, req.Name, req.Postcodes, req.FeeSen)
	if err != nil {
		if errors.Is(err, services.ErrWebsiteNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Website not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create delivery zone",
		})
	}
	if !result.Allowed {
		return respondDenied(c, result, h.upgradeURL)
	}

	return c.Status(fiber.StatusCreated).JSON(zone)
}

func (h *DeliveryHandler) ListZones(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	websiteID, err := uuid.Parse(c.Params("websiteId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	zones, err := h.deliveryService.ListZones(c.UserContext(), userID, websiteID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list delivery zones",
		})
	}
	return c.JSON(fiber.Map{"zones": zones})
}

func (h *DeliveryHandler) DeleteZone(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	zoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid zone id"})
	}

	if err := h.deliveryService.DeleteZone(c.UserContext(), userID, zoneID); err != nil {
		if errors.Is(err, services.ErrZoneNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Delivery zone not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete delivery zone",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

type createRiderRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *DeliveryHandler) CreateRider(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	var req createRiderRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Name is required"})
	}

	rider, result, err := h.deliveryService.CreateRider(c.UserContext(), userID, req.Name, req.Phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create rider",
		})
	}
	if !result.Allowed {
		return respondDenied(c, result, h.upgradeURL)
	}

	return c.Status(fiber.StatusCreated).JSON(rider)
}

func (h *DeliveryHandler) ListRiders(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	riders, err := h.deliveryService.ListRiders(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list riders",
		})
	}
	return c.JSON(fiber.Map{"riders": riders})
}

func (h *DeliveryHandler) DeleteRider(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	riderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid rider id"})
	}

	if err := h.deliveryService.DeleteRider(c.UserContext(), userID, riderID); err != nil {
		if errors.Is(err, services.ErrRiderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Rider not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete rider",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
