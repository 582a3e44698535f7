package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/middleware"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/services"
)

// AIHandler fronts the metered AI generation endpoints. The routes run the
// guard's CheckLimit first; usage is committed here only after the provider
// call succeeds, so a failed generation never burns quota.
type AIHandler struct {
	aiService      *services.AIService
	websiteService *services.WebsiteService
	guard          *middleware.Entitlements
}

func NewAIHandler(aiService *services.AIService, websiteService *services.WebsiteService, guard *middleware.Entitlements) *AIHandler {
	return &AIHandler{aiService: aiService, websiteService: websiteService, guard: guard}
}

type generateHeroRequest struct {
	WebsiteID    string `json:"website_id"`
	BusinessName string `json:"business_name"`
	Cuisine      string `json:"cuisine"`
}

func (h *AIHandler) GenerateHero(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	var req generateHeroRequest
	if err := c.BodyParser(&req); err != nil || req.BusinessName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Business name is required",
		})
	}
	if req.Cuisine == "" {
		req.Cuisine = "food"
	}

	text, err := h.aiService.GenerateHeroText(c.UserContext(), req.BusinessName, req.Cuisine)
	if err != nil {
		if errors.Is(err, services.ErrAIUnavailable) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: true, Message: "AI generation is temporarily unavailable. Please try again.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate hero text",
		})
	}

	if err := h.guard.Commit(c, billing.ActionGenerateAIHero); err != nil {
		slog.Error("failed to commit hero generation usage", "user_id", userID, "error", err)
	}

	if req.WebsiteID != "" {
		if siteID, perr := uuid.Parse(req.WebsiteID); perr == nil {
			if _, uerr := h.websiteService.Update(c.UserContext(), userID, siteID,
				map[string]interface{}{"hero_text": text}); uerr != nil {
				slog.Warn("generated hero text but could not save to website",
					"user_id", userID, "website_id", siteID, "error", uerr)
			}
		}
	}

	return c.JSON(fiber.Map{"hero_text": text})
}

type generateMenuImageRequest struct {
	DishName    string `json:"dish_name"`
	Description string `json:"description"`
}

func (h *AIHandler) GenerateMenuImage(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	var req generateMenuImageRequest
	if err := c.BodyParser(&req); err != nil || req.DishName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Dish name is required",
		})
	}

	prompt, err := h.aiService.GenerateMenuImagePrompt(c.UserContext(), req.DishName, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrAIUnavailable) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: true, Message: "AI generation is temporarily unavailable. Please try again.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate menu image prompt",
		})
	}

	if err := h.guard.Commit(c, billing.ActionGenerateAIImage); err != nil {
		slog.Error("failed to commit image generation usage", "user_id", userID, "error", err)
	}

	return c.JSON(fiber.Map{"image_prompt": prompt})
}
