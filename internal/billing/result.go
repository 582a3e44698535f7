package billing

// DenyReason is the machine-readable reason carried by a denial.
type DenyReason string

const (
	// DenySubscriptionExpired covers suspended, locked and lapsed
	// subscriptions. It always wins over DenyLimitReached when both apply.
	DenySubscriptionExpired DenyReason = "subscription_expired"
	DenyLimitReached        DenyReason = "limit_reached"
	// DenySystemError is the fail-closed outcome for store failures and
	// configuration bugs. Gated actions are never allowed on error paths.
	DenySystemError DenyReason = "system_error"
)

// LimitResult is the outcome of an entitlement check. Expected business
// conditions (expired, limit reached) are values here, never errors.
type LimitResult struct {
	Allowed bool
	// Unlimited marks the short-circuit path: no usage counter was read.
	Unlimited bool
	// UsingAddon marks an allowance granted by an addon credit. In the
	// two-phase form the caller must consume the credit, not increment
	// usage.
	UsingAddon bool
	Reason     DenyReason

	CurrentUsage int
	Limit        int
	CanBuyAddon  bool
}

func allowed(current, limit int) LimitResult {
	return LimitResult{Allowed: true, CurrentUsage: current, Limit: limit}
}

func allowedUnlimited() LimitResult {
	return LimitResult{Allowed: true, Unlimited: true}
}

func allowedViaAddon(current, limit int) LimitResult {
	return LimitResult{Allowed: true, UsingAddon: true, CurrentUsage: current, Limit: limit}
}

func denied(reason DenyReason) LimitResult {
	return LimitResult{Reason: reason}
}
