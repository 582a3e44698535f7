package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/dto"
)

// respondDenied converts a deny result into the gated 403 body, or a 503
// when the denial came from the fail-closed error path.
func respondDenied(c *fiber.Ctx, result billing.LimitResult, upgradeURL string) error {
	if result.Reason == billing.DenySystemError {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Service temporarily unavailable. Please try again shortly.",
		})
	}
	return c.Status(fiber.StatusForbidden).JSON(dto.DeniedResponse(result, upgradeURL))
}
