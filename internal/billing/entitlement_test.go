package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/models"
	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

type fakeSubStore struct {
	sub   *models.Subscription
	err   error
	calls int
}

func (f *fakeSubStore) Current(_ context.Context, _ uuid.UUID) (*models.Subscription, error) {
	f.calls++
	return f.sub, f.err
}

type fakeUsageStore struct {
	mu         sync.Mutex
	counts     map[string]int
	err        error
	reads      int
	lastPeriod string
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{counts: map[string]int{}}
}

func usageKey(userID uuid.UUID, res plans.ResourceType, period string) string {
	return fmt.Sprintf("%s|%s|%s", userID, res, period)
}

func (f *fakeUsageStore) CurrentUsage(_ context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	f.lastPeriod = period
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[usageKey(userID, res, period)], nil
}

func (f *fakeUsageStore) Increment(_ context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.lastPeriod = period
	key := usageKey(userID, res, period)
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeUsageStore) IncrementBelow(_ context.Context, userID uuid.UUID, res plans.ResourceType, period string, limit int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, false, f.err
	}
	f.lastPeriod = period
	key := usageKey(userID, res, period)
	if f.counts[key] >= limit {
		return f.counts[key], false, nil
	}
	f.counts[key]++
	return f.counts[key], true, nil
}

func (f *fakeUsageStore) Decrement(_ context.Context, userID uuid.UUID, res plans.ResourceType, period string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	key := usageKey(userID, res, period)
	if f.counts[key] > 0 {
		f.counts[key]--
	}
	return f.counts[key], nil
}

type fakeAddonStore struct {
	mu       sync.Mutex
	balances map[plans.AddonType]int
	err      error
	reads    int
}

func newFakeAddonStore() *fakeAddonStore {
	return &fakeAddonStore{balances: map[plans.AddonType]int{}}
}

func (f *fakeAddonStore) Balance(_ context.Context, _ uuid.UUID, addon plans.AddonType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[addon], nil
}

func (f *fakeAddonStore) Credit(_ context.Context, _ uuid.UUID, addon plans.AddonType, amount int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.balances[addon] += amount
	return f.balances[addon], nil
}

func (f *fakeAddonStore) ConsumeOne(_ context.Context, _ uuid.UUID, addon plans.AddonType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.balances[addon] <= 0 {
		return false, nil
	}
	f.balances[addon]--
	return true, nil
}

const testGraceWindow = 7 * 24 * time.Hour

func activeSub(tier plans.Tier) *models.Subscription {
	return &models.Subscription{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Tier:        tier,
		Status:      models.StatusActive,
		PeriodStart: time.Now().Add(-24 * time.Hour),
		PeriodEnd:   time.Now().Add(29 * 24 * time.Hour),
	}
}

func newTestEvaluator(subs *fakeSubStore, usage *fakeUsageStore, addons *fakeAddonStore) *Evaluator {
	return NewEvaluator(plans.Default(), subs, usage, addons, testGraceWindow, 5*time.Second)
}

func TestCheckLimitAllowsUnderLimit(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	require.True(t, result.Allowed)
	assert.False(t, result.Unlimited)
	assert.False(t, result.UsingAddon)
	assert.Equal(t, 0, result.CurrentUsage)
	assert.Equal(t, 3, result.Limit)
}

func TestCheckLimitUnlimitedSkipsUsageRead(t *testing.T) {
	sub := activeSub(plans.TierPro)
	usage := newFakeUsageStore()
	addons := newFakeAddonStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	require.True(t, result.Allowed)
	assert.True(t, result.Unlimited)
	assert.Equal(t, 0, usage.reads, "unlimited must short-circuit before any usage read")
	assert.Equal(t, 0, addons.reads)
}

func TestCheckLimitExpiredWinsOverLimit(t *testing.T) {
	// A suspended user who is also over their limit must see
	// subscription_expired, never limit_reached.
	sub := activeSub(plans.TierBasic)
	sub.Status = models.StatusSuspended
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, time.Now().UTC().Format("2006-01"))] = 3
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	require.False(t, result.Allowed)
	assert.Equal(t, DenySubscriptionExpired, result.Reason)
	assert.Equal(t, 0, usage.reads, "status denial must precede the usage read")
}

func TestCheckLimitLockedDenied(t *testing.T) {
	sub := activeSub(plans.TierPro)
	sub.Status = models.StatusLocked
	e := newTestEvaluator(&fakeSubStore{sub: sub}, newFakeUsageStore(), newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	require.False(t, result.Allowed)
	assert.Equal(t, DenySubscriptionExpired, result.Reason)
}

func TestCheckLimitLapsedPeriodDeniedWithoutSweep(t *testing.T) {
	// The subscription row still says active but the grace window closed two
	// days ago; the evaluator must treat it as suspended.
	sub := activeSub(plans.TierBasic)
	sub.PeriodEnd = time.Now().Add(-testGraceWindow - 48*time.Hour)
	e := newTestEvaluator(&fakeSubStore{sub: sub}, newFakeUsageStore(), newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	require.False(t, result.Allowed)
	assert.Equal(t, DenySubscriptionExpired, result.Reason)
}

func TestCheckLimitGracePeriodStillAllowed(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	sub.PeriodEnd = time.Now().Add(-24 * time.Hour)
	e := newTestEvaluator(&fakeSubStore{sub: sub}, newFakeUsageStore(), newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	assert.True(t, result.Allowed)
}

func TestCheckLimitAddonFallback(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceAIHero, time.Now().UTC().Format("2006-01"))] = 20
	addons := newFakeAddonStore()
	addons.balances[plans.AddonAIHero] = 2
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	result := e.CheckLimit(context.Background(), sub.UserID, ActionGenerateAIHero)

	require.True(t, result.Allowed)
	assert.True(t, result.UsingAddon)
	// Two-phase check only reads the balance; consumption happens at commit.
	assert.Equal(t, 2, addons.balances[plans.AddonAIHero])
}

func TestCheckLimitDeniedWithAddonHint(t *testing.T) {
	sub := activeSub(plans.TierStarter)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceAIHero, plans.LifetimePeriod)] = 3
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionGenerateAIHero)

	require.False(t, result.Allowed)
	assert.Equal(t, DenyLimitReached, result.Reason)
	assert.Equal(t, 3, result.CurrentUsage)
	assert.Equal(t, 3, result.Limit)
	assert.True(t, result.CanBuyAddon)
	assert.Equal(t, plans.LifetimePeriod, usage.lastPeriod, "starter usage must use the lifetime period key")
}

func TestCheckLimitMenuItemsNoAddon(t *testing.T) {
	sub := activeSub(plans.TierStarter)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceMenuItem, plans.LifetimePeriod)] = 20
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionAddMenuItem)

	require.False(t, result.Allowed)
	assert.Equal(t, DenyLimitReached, result.Reason)
	assert.False(t, result.CanBuyAddon, "menu items have no addon; upgrade is the only path")
}

func TestCheckLimitFailsClosedOnSubscriptionError(t *testing.T) {
	e := newTestEvaluator(&fakeSubStore{err: errors.New("connection refused")}, newFakeUsageStore(), newFakeAddonStore())

	result := e.CheckLimit(context.Background(), uuid.New(), ActionCreateWebsite)

	require.False(t, result.Allowed)
	assert.Equal(t, DenySystemError, result.Reason)
}

func TestCheckLimitFailsClosedOnUsageError(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	usage.err = errors.New("query timeout")
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckLimit(context.Background(), sub.UserID, ActionCreateWebsite)

	require.False(t, result.Allowed)
	assert.Equal(t, DenySystemError, result.Reason)
}

func TestCheckLimitFailsClosedOnAddonError(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceAIHero, time.Now().UTC().Format("2006-01"))] = 20
	addons := newFakeAddonStore()
	addons.err = errors.New("connection reset")
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	result := e.CheckLimit(context.Background(), sub.UserID, ActionGenerateAIHero)

	require.False(t, result.Allowed)
	assert.Equal(t, DenySystemError, result.Reason)
}

func TestCheckAndConsumeIncrements(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckAndConsume(context.Background(), sub.UserID, ActionCreateWebsite)

	require.True(t, result.Allowed)
	period := time.Now().UTC().Format("2006-01")
	assert.Equal(t, 1, usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, period)])
}

func TestCheckAndConsumeAddonAfterQuota(t *testing.T) {
	sub := activeSub(plans.TierStarter)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, plans.LifetimePeriod)] = 1
	addons := newFakeAddonStore()
	addons.balances[plans.AddonWebsite] = 1
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	result := e.CheckAndConsume(context.Background(), sub.UserID, ActionCreateWebsite)

	require.True(t, result.Allowed)
	assert.True(t, result.UsingAddon)
	assert.Equal(t, 0, addons.balances[plans.AddonWebsite])

	// Second attempt: quota and credits both exhausted.
	result = e.CheckAndConsume(context.Background(), sub.UserID, ActionCreateWebsite)
	require.False(t, result.Allowed)
	assert.Equal(t, DenyLimitReached, result.Reason)
	assert.True(t, result.CanBuyAddon)
}

func TestCheckAndConsumeZeroLimitSkipsIncrement(t *testing.T) {
	// Starter includes zero riders; the counter must never be touched.
	sub := activeSub(plans.TierStarter)
	usage := newFakeUsageStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	result := e.CheckAndConsume(context.Background(), sub.UserID, ActionAddRider)

	require.False(t, result.Allowed)
	assert.Equal(t, DenyLimitReached, result.Reason)
	assert.Equal(t, 0, usage.counts[usageKey(sub.UserID, plans.ResourceRider, plans.LifetimePeriod)])
	assert.True(t, result.CanBuyAddon)
}

func TestCheckAndConsumeExactlyOneWinnerAtLastSlot(t *testing.T) {
	// Two concurrent requests race for the last website slot; the bounded
	// increment guarantees exactly one wins.
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, time.Now().UTC().Format("2006-01"))] = 2
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	results := make([]LimitResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.CheckAndConsume(context.Background(), sub.UserID, ActionCreateWebsite)
		}(i)
	}
	wg.Wait()

	allowedCount := 0
	for _, r := range results {
		if r.Allowed {
			allowedCount++
		}
	}
	assert.Equal(t, 1, allowedCount, "exactly one concurrent request may take the last slot")
}

func TestCommitUsageIncrements(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	require.NoError(t, e.CommitUsage(context.Background(), sub.UserID, ActionGenerateAIHero, false))

	period := time.Now().UTC().Format("2006-01")
	assert.Equal(t, 1, usage.counts[usageKey(sub.UserID, plans.ResourceAIHero, period)])
}

func TestCommitUsageConsumesAddon(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	addons := newFakeAddonStore()
	addons.balances[plans.AddonAIHero] = 1
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	require.NoError(t, e.CommitUsage(context.Background(), sub.UserID, ActionGenerateAIHero, true))

	assert.Equal(t, 0, addons.balances[plans.AddonAIHero])
	assert.Empty(t, usage.counts, "addon commit must not touch the usage counter")
}

func TestRefundRestoresCounterOrCredit(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	period := time.Now().UTC().Format("2006-01")
	usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, period)] = 2
	addons := newFakeAddonStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	require.NoError(t, e.Refund(context.Background(), sub.UserID, ActionCreateWebsite, false))
	assert.Equal(t, 1, usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, period)])

	require.NoError(t, e.Refund(context.Background(), sub.UserID, ActionCreateWebsite, true))
	assert.Equal(t, 1, addons.balances[plans.AddonWebsite])
}

func TestReleaseOnDeleteFloorsAtZero(t *testing.T) {
	sub := activeSub(plans.TierBasic)
	usage := newFakeUsageStore()
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, newFakeAddonStore())

	count, err := e.ReleaseOnDelete(context.Background(), sub.UserID, ActionDeleteWebsite)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUsageSummaryCoversAllResources(t *testing.T) {
	sub := activeSub(plans.TierStarter)
	usage := newFakeUsageStore()
	usage.counts[usageKey(sub.UserID, plans.ResourceWebsite, plans.LifetimePeriod)] = 1
	addons := newFakeAddonStore()
	addons.balances[plans.AddonAIHero] = 5
	e := newTestEvaluator(&fakeSubStore{sub: sub}, usage, addons)

	tier, rows, err := e.UsageSummary(context.Background(), sub.UserID)
	require.NoError(t, err)
	assert.Equal(t, plans.TierStarter, tier)
	require.Len(t, rows, 6)

	byResource := map[plans.ResourceType]ResourceUsage{}
	for _, row := range rows {
		byResource[row.Resource] = row
	}
	assert.Equal(t, 1, byResource[plans.ResourceWebsite].Used)
	assert.Equal(t, 1, byResource[plans.ResourceWebsite].Limit)
	assert.Equal(t, 5, byResource[plans.ResourceAIHero].AddonCredit)
	assert.Equal(t, 0, byResource[plans.ResourceRider].Limit)
}
