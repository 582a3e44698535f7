package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/services"
)

type MenuHandler struct {
	menuService *services.MenuService
	upgradeURL  string
}

func NewMenuHandler(menuService *services.MenuService, upgradeURL string) *MenuHandler {
	return &MenuHandler{menuService: menuService, upgradeURL: upgradeURL}
}

type createMenuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceSen    int64  `json:"price_sen"`
}

func (h *MenuHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	websiteID, err := uuid.Parse(c.Params("websiteId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	var req createMenuItemRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Name is required"})
	}

	item, result, err := h.menuService.Create(c.UserContext(), userID, websiteID, req.Name, req.Description, req.PriceSen)
	if err != nil {
		if errors.Is(err, services.ErrWebsiteNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Website not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create menu item",
		})
	}
	if !result.Allowed {
		return respondDenied(c, result, h.upgradeURL)
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *MenuHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	websiteID, err := uuid.Parse(c.Params("websiteId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	items, err := h.menuService.List(c.UserContext(), userID, websiteID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list menu items",
		})
	}
	return c.JSON(fiber.Map{"items": items})
}

type updateMenuItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceSen    *int64  `json:"price_sen"`
	Available   *bool   `json:"available"`
}

func (h *MenuHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid item id"})
	}

	var req updateMenuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PriceSen != nil {
		updates["price_sen"] = *req.PriceSen
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Nothing to update"})
	}

	item, err := h.menuService.Update(c.UserContext(), userID, itemID, updates)
	if err != nil {
		if errors.Is(err, services.ErrMenuItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Menu item not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update menu item",
		})
	}
	return c.JSON(item)
}

func (h *MenuHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid item id"})
	}

	if err := h.menuService.Delete(c.UserContext(), userID, itemID); err != nil {
		if errors.Is(err, services.ErrMenuItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Menu item not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete menu item",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
