package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// Evaluator is the entitlement decision core. Given a user and an intended
// action it decides allowed / blocked-by-limit / blocked-by-expired, reading
// the plan catalog, the subscription row, the usage counter and the addon
// balance in that strict order. The status check always precedes the limit
// check, so an expired subscription wins over limit_reached in the reported
// reason.
//
// Stores are injected as interfaces so tests can substitute fakes and assert
// which reads happened.
type Evaluator struct {
	catalog     *plans.Catalog
	subs        SubscriptionStore
	usage       UsageStore
	addons      AddonStore
	graceWindow time.Duration
	timeout     time.Duration
	now         func() time.Time
}

func NewEvaluator(catalog *plans.Catalog, subs SubscriptionStore, usage UsageStore, addons AddonStore, graceWindow, timeout time.Duration) *Evaluator {
	return &Evaluator{
		catalog:     catalog,
		subs:        subs,
		usage:       usage,
		addons:      addons,
		graceWindow: graceWindow,
		timeout:     timeout,
		now:         time.Now,
	}
}

// CheckLimit runs the check phase only. Callers that act on a plain Allowed
// must call CommitUsage after the protected operation succeeds; on
// UsingAddon they must call ConsumeAddon instead. CheckAndConsume packages
// both phases for callers that want the one-call form.
func (e *Evaluator) CheckLimit(ctx context.Context, userID uuid.UUID, action Action) LimitResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	sub, plan, res, result, ok := e.resolve(ctx, userID, action)
	if !ok {
		return result
	}

	limit, err := plan.Limits.For(res)
	if err != nil {
		slog.Error("plan catalog has no limit for resource", "tier", sub.Tier, "resource", res, "error", err)
		return denied(DenySystemError)
	}
	if limit.IsUnlimited() {
		return allowedUnlimited()
	}

	period := plan.PeriodKey(e.now())
	used, err := e.usage.CurrentUsage(ctx, userID, res, period)
	if err != nil {
		slog.Error("usage read failed", "user_id", userID, "resource", res, "error", err)
		return denied(DenySystemError)
	}
	if limit.Allows(used) {
		return allowed(used, limit.Value())
	}

	return e.checkAddon(ctx, userID, res, used, limit.Value())
}

// CheckAndConsume is the packaged check-and-commit form. The increment is a
// compare-and-increment bounded by the plan limit, so two concurrent calls
// at the last slot produce exactly one Allowed and one Denied.
func (e *Evaluator) CheckAndConsume(ctx context.Context, userID uuid.UUID, action Action) LimitResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	sub, plan, res, result, ok := e.resolve(ctx, userID, action)
	if !ok {
		return result
	}

	limit, err := plan.Limits.For(res)
	if err != nil {
		slog.Error("plan catalog has no limit for resource", "tier", sub.Tier, "resource", res, "error", err)
		return denied(DenySystemError)
	}
	if limit.IsUnlimited() {
		return allowedUnlimited()
	}

	period := plan.PeriodKey(e.now())
	if limit.Value() > 0 {
		count, took, err := e.usage.IncrementBelow(ctx, userID, res, period, limit.Value())
		if err != nil {
			slog.Error("usage increment failed", "user_id", userID, "resource", res, "error", err)
			return denied(DenySystemError)
		}
		if took {
			return allowed(count-1, limit.Value())
		}
	}

	// At or over the included quota: fall back to a purchased credit.
	addon, hasAddon := plans.AddonFor(res)
	if hasAddon {
		consumed, err := e.addons.ConsumeOne(ctx, userID, addon)
		if err != nil {
			slog.Error("addon consume failed", "user_id", userID, "addon", addon, "error", err)
			return denied(DenySystemError)
		}
		if consumed {
			return allowedViaAddon(limit.Value(), limit.Value())
		}
	}

	used, err := e.usage.CurrentUsage(ctx, userID, res, period)
	if err != nil {
		used = limit.Value()
	}
	return LimitResult{
		Reason:       DenyLimitReached,
		CurrentUsage: used,
		Limit:        limit.Value(),
		CanBuyAddon:  e.catalog.CanBuyAddon(res),
	}
}

// CommitUsage records a successful gated operation that passed a two-phase
// CheckLimit. usedAddon must mirror the UsingAddon flag of the check result.
func (e *Evaluator) CommitUsage(ctx context.Context, userID uuid.UUID, action Action, usedAddon bool) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := action.Resource()
	if err != nil {
		return err
	}
	if usedAddon {
		addon, ok := plans.AddonFor(res)
		if !ok {
			return plans.ErrUnknownAddon
		}
		if _, err := e.addons.ConsumeOne(ctx, userID, addon); err != nil {
			return err
		}
		return nil
	}

	sub, err := e.subs.Current(ctx, userID)
	if err != nil {
		return err
	}
	plan, err := e.catalog.Plan(sub.Tier)
	if err != nil {
		return err
	}
	_, err = e.usage.Increment(ctx, userID, res, plan.PeriodKey(e.now()))
	return err
}

// Refund undoes a CheckAndConsume commit when the downstream operation
// failed: the addon credit goes back, or the usage counter steps down.
func (e *Evaluator) Refund(ctx context.Context, userID uuid.UUID, action Action, usedAddon bool) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := action.Resource()
	if err != nil {
		return err
	}
	if usedAddon {
		addon, ok := plans.AddonFor(res)
		if !ok {
			return plans.ErrUnknownAddon
		}
		_, err := e.addons.Credit(ctx, userID, addon, 1)
		return err
	}

	sub, err := e.subs.Current(ctx, userID)
	if err != nil {
		return err
	}
	plan, err := e.catalog.Plan(sub.Tier)
	if err != nil {
		return err
	}
	_, err = e.usage.Decrement(ctx, userID, res, plan.PeriodKey(e.now()))
	return err
}

// ReleaseOnDelete frees one quota slot after a resource deletion. Deletions
// are not entitlement-checked; freeing capacity is always permitted.
func (e *Evaluator) ReleaseOnDelete(ctx context.Context, userID uuid.UUID, action Action) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := action.Resource()
	if err != nil {
		return 0, err
	}
	sub, err := e.subs.Current(ctx, userID)
	if err != nil {
		return 0, err
	}
	plan, err := e.catalog.Plan(sub.Tier)
	if err != nil {
		return 0, err
	}
	return e.usage.Decrement(ctx, userID, res, plan.PeriodKey(e.now()))
}

// ResourceUsage is one row of the usage summary surface.
type ResourceUsage struct {
	Resource    plans.ResourceType `json:"resource"`
	Used        int                `json:"used"`
	Limit       int                `json:"limit"`
	Unlimited   bool               `json:"unlimited"`
	AddonCredit int                `json:"addon_credits"`
}

// UsageSummary reports all counters for the user's current tier and period.
func (e *Evaluator) UsageSummary(ctx context.Context, userID uuid.UUID) (plans.Tier, []ResourceUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	sub, err := e.subs.Current(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	plan, err := e.catalog.Plan(sub.Tier)
	if err != nil {
		return "", nil, err
	}
	period := plan.PeriodKey(e.now())

	resources := []plans.ResourceType{
		plans.ResourceWebsite,
		plans.ResourceMenuItem,
		plans.ResourceAIHero,
		plans.ResourceAIMenuImage,
		plans.ResourceDeliveryZone,
		plans.ResourceRider,
	}

	summary := make([]ResourceUsage, 0, len(resources))
	for _, res := range resources {
		limit, err := plan.Limits.For(res)
		if err != nil {
			return "", nil, err
		}
		row := ResourceUsage{Resource: res, Unlimited: limit.IsUnlimited()}
		if !limit.IsUnlimited() {
			row.Limit = limit.Value()
			used, err := e.usage.CurrentUsage(ctx, userID, res, period)
			if err != nil {
				return "", nil, err
			}
			row.Used = used
		}
		if addon, ok := plans.AddonFor(res); ok {
			bal, err := e.addons.Balance(ctx, userID, addon)
			if err != nil {
				return "", nil, err
			}
			row.AddonCredit = bal
		}
		summary = append(summary, row)
	}
	return sub.Tier, summary, nil
}

// resolve performs the shared front half of a check: subscription status
// first, then catalog and action resolution. ok is false when the returned
// result is final.
func (e *Evaluator) resolve(ctx context.Context, userID uuid.UUID, action Action) (*models.Subscription, plans.Plan, plans.ResourceType, LimitResult, bool) {
	sub, err := e.subs.Current(ctx, userID)
	if err != nil {
		slog.Error("subscription read failed", "user_id", userID, "error", err)
		return nil, plans.Plan{}, "", denied(DenySystemError), false
	}

	if !HasAccess(EffectiveStatus(sub, e.now(), e.graceWindow)) {
		return nil, plans.Plan{}, "", denied(DenySubscriptionExpired), false
	}

	res, err := action.Resource()
	if err != nil {
		slog.Error("unmapped entitlement action", "action", action, "error", err)
		return nil, plans.Plan{}, "", denied(DenySystemError), false
	}

	plan, err := e.catalog.Plan(sub.Tier)
	if err != nil {
		slog.Error("subscription references unknown tier", "user_id", userID, "tier", sub.Tier, "error", err)
		return nil, plans.Plan{}, "", denied(DenySystemError), false
	}

	return sub, plan, res, LimitResult{}, true
}

func (e *Evaluator) checkAddon(ctx context.Context, userID uuid.UUID, res plans.ResourceType, used, limit int) LimitResult {
	addon, hasAddon := plans.AddonFor(res)
	if hasAddon {
		bal, err := e.addons.Balance(ctx, userID, addon)
		if err != nil {
			slog.Error("addon balance read failed", "user_id", userID, "addon", addon, "error", err)
			return denied(DenySystemError)
		}
		if bal > 0 {
			return allowedViaAddon(used, limit)
		}
	}
	return LimitResult{
		Reason:       DenyLimitReached,
		CurrentUsage: used,
		Limit:        limit,
		CanBuyAddon:  e.catalog.CanBuyAddon(res),
	}
}
