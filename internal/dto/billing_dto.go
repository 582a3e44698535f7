package dto

import (
	"time"

	"github.com/yassirar77-cloud/binaapp-sub001/internal/billing"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// GatedDeniedResponse is the structured 403 body returned when an
// entitlement check blocks a gated action. Error carries the machine
// readable reason; Message is the human explanation shown to the user.
type GatedDeniedResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	CurrentUsage *int   `json:"current_usage,omitempty"`
	Limit        *int   `json:"limit,omitempty"`
	CanBuyAddon  *bool  `json:"can_buy_addon,omitempty"`
	UpgradeURL   string `json:"upgrade_url"`
}

// DeniedResponse builds the 403 body for a deny result.
func DeniedResponse(result billing.LimitResult, upgradeURL string) GatedDeniedResponse {
	resp := GatedDeniedResponse{
		Error:      string(result.Reason),
		UpgradeURL: upgradeURL,
	}
	switch result.Reason {
	case billing.DenySubscriptionExpired:
		resp.Message = "Your subscription has expired. Renew your plan to continue."
	case billing.DenyLimitReached:
		resp.Message = "You have reached your plan limit for this resource."
		current, limit, canBuy := result.CurrentUsage, result.Limit, result.CanBuyAddon
		resp.CurrentUsage = &current
		resp.Limit = &limit
		resp.CanBuyAddon = &canBuy
		if canBuy {
			resp.Message += " Buy an addon or upgrade your plan to continue."
		} else {
			resp.Message += " Upgrade your plan to continue."
		}
	default:
		resp.Message = "Something went wrong on our side. Please try again shortly."
	}
	return resp
}

type SubscriptionResponse struct {
	Tier           plans.Tier `json:"tier"`
	Status         string     `json:"status"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	GracePeriodEnd *time.Time `json:"grace_period_end,omitempty"`
}

type UsageSummaryResponse struct {
	Tier      plans.Tier              `json:"tier"`
	Resources []billing.ResourceUsage `json:"resources"`
}

type PurchaseAddonRequest struct {
	AddonType string `json:"addon_type"`
	Quantity  int    `json:"quantity"`
}

type PurchaseAddonResponse struct {
	AddonType string `json:"addon_type"`
	Balance   int    `json:"balance"`
}
