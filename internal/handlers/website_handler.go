package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/services"
)

type WebsiteHandler struct {
	websiteService *services.WebsiteService
	upgradeURL     string
}

func NewWebsiteHandler(websiteService *services.WebsiteService, upgradeURL string) *WebsiteHandler {
	return &WebsiteHandler{websiteService: websiteService, upgradeURL: upgradeURL}
}

type createWebsiteRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Template string `json:"template"`
}

func (h *WebsiteHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	var req createWebsiteRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.Slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Name and slug are required",
		})
	}
	if req.Template == "" {
		req.Template = "classic"
	}

	site, result, err := h.websiteService.Create(c.UserContext(), userID, req.Name, req.Slug, req.Template)
	if err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create website",
		})
	}
	if !result.Allowed {
		return respondDenied(c, result, h.upgradeURL)
	}

	return c.Status(fiber.StatusCreated).JSON(site)
}

func (h *WebsiteHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	sites, err := h.websiteService.List(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list websites",
		})
	}
	return c.JSON(fiber.Map{"websites": sites})
}

func (h *WebsiteHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	siteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	site, err := h.websiteService.Get(c.UserContext(), userID, siteID)
	if err != nil {
		if errors.Is(err, services.ErrWebsiteNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Website not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load website",
		})
	}
	return c.JSON(site)
}

type updateWebsiteRequest struct {
	Name      *string `json:"name"`
	Template  *string `json:"template"`
	HeroText  *string `json:"hero_text"`
	Published *bool   `json:"published"`
}

func (h *WebsiteHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	siteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	var req updateWebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Template != nil {
		updates["template"] = *req.Template
	}
	if req.HeroText != nil {
		updates["hero_text"] = *req.HeroText
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Nothing to update"})
	}

	site, err := h.websiteService.Update(c.UserContext(), userID, siteID, updates)
	if err != nil {
		if errors.Is(err, services.ErrWebsiteNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Website not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update website",
		})
	}
	return c.JSON(site)
}

func (h *WebsiteHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}
	siteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid website id"})
	}

	if err := h.websiteService.Delete(c.UserContext(), userID, siteID); err != nil {
		if errors.Is(err, services.ErrWebsiteNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Website not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete website",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
