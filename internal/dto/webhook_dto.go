package dto

// BillingWebhook is the payment gateway's event envelope. Timestamps are
// unix milliseconds, matching the gateway's wire format.
type BillingWebhook struct {
	APIVersion string       `json:"api_version"`
	Event      BillingEvent `json:"event"`
}

type BillingEvent struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	UserID        string `json:"user_id"`
	Tier          string `json:"tier"`
	PeriodStartMs int64  `json:"period_start_ms"`
	PeriodEndMs   int64  `json:"period_end_ms"`
	GatewayRef    string `json:"gateway_ref"`
	Currency      string `json:"currency"`
	AmountSen     int64  `json:"amount_sen"`
}
