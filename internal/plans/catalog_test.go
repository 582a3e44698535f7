package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogTierLimits(t *testing.T) {
	c := Default()

	tests := []struct {
		tier      Tier
		res       ResourceType
		unlimited bool
		value     int
	}{
		{TierStarter, ResourceWebsite, false, 1},
		{TierStarter, ResourceMenuItem, false, 20},
		{TierStarter, ResourceAIHero, false, 3},
		{TierStarter, ResourceAIMenuImage, false, 5},
		{TierStarter, ResourceDeliveryZone, false, 1},
		{TierStarter, ResourceRider, false, 0},
		{TierBasic, ResourceWebsite, false, 3},
		{TierBasic, ResourceMenuItem, false, 100},
		{TierBasic, ResourceRider, false, 3},
		{TierPro, ResourceWebsite, true, 0},
		{TierPro, ResourceMenuItem, true, 0},
		{TierPro, ResourceAIHero, false, 100},
		{TierPro, ResourceAIMenuImage, true, 0},
		{TierPro, ResourceDeliveryZone, false, 15},
		{TierPro, ResourceRider, false, 10},
	}

	for _, tt := range tests {
		limit, err := c.LimitFor(tt.tier, tt.res)
		require.NoError(t, err, "%s/%s", tt.tier, tt.res)
		assert.Equal(t, tt.unlimited, limit.IsUnlimited(), "%s/%s unlimited", tt.tier, tt.res)
		if !tt.unlimited {
			assert.Equal(t, tt.value, limit.Value(), "%s/%s value", tt.tier, tt.res)
		}
	}
}

func TestCatalogUnknownLookups(t *testing.T) {
	c := Default()

	_, err := c.Plan(Tier("enterprise"))
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = c.LimitFor(TierBasic, ResourceType("widgets"))
	assert.ErrorIs(t, err, ErrUnknownResource)

	_, err = c.AddonPrice(AddonType("menu_item"))
	assert.ErrorIs(t, err, ErrUnknownAddon)
}

func TestLimitAllows(t *testing.T) {
	assert.True(t, Unlimited().Allows(1_000_000))
	assert.True(t, Bounded(3).Allows(2))
	assert.False(t, Bounded(3).Allows(3))
	assert.False(t, Bounded(0).Allows(0))
}

func TestPeriodKey(t *testing.T) {
	now := time.Date(2026, time.March, 15, 23, 30, 0, 0, time.FixedZone("MYT", 8*3600))

	c := Default()
	starter, err := c.Plan(TierStarter)
	require.NoError(t, err)
	basic, err := c.Plan(TierBasic)
	require.NoError(t, err)

	assert.Equal(t, LifetimePeriod, starter.PeriodKey(now))
	// Period keys resolve in UTC, so a local MYT evening stays in March.
	assert.Equal(t, "2026-03", basic.PeriodKey(now))

	endOfMonth := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.FixedZone("MYT", 8*3600))
	assert.Equal(t, "2026-03", basic.PeriodKey(endOfMonth))
}

func TestAddonMapping(t *testing.T) {
	c := Default()

	addon, ok := AddonFor(ResourceWebsite)
	require.True(t, ok)
	assert.Equal(t, AddonWebsite, addon)

	// Menu items deliberately have no addon: upgrade is the only way up.
	_, ok = AddonFor(ResourceMenuItem)
	assert.False(t, ok)
	assert.False(t, c.CanBuyAddon(ResourceMenuItem))
	assert.True(t, c.CanBuyAddon(ResourceAIHero))
}

func TestAddonPrices(t *testing.T) {
	c := Default()

	tests := []struct {
		addon AddonType
		sen   int64
	}{
		{AddonWebsite, 1500},
		{AddonAIHero, 500},
		{AddonAIMenuImage, 500},
		{AddonDeliveryZone, 1000},
		{AddonRider, 1000},
	}
	for _, tt := range tests {
		price, err := c.AddonPrice(tt.addon)
		require.NoError(t, err)
		assert.Equal(t, tt.sen, price, string(tt.addon))
	}
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierPro.AtLeast(TierBasic))
	assert.True(t, TierBasic.AtLeast(TierBasic))
	assert.False(t, TierStarter.AtLeast(TierBasic))
	assert.False(t, Tier("enterprise").AtLeast(TierStarter))
}
