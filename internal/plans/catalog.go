package plans

import (
	"errors"
	"time"
)

var (
	ErrUnknownTier     = errors.New("unknown subscription tier")
	ErrUnknownResource = errors.New("unknown resource type")
	ErrUnknownAddon    = errors.New("unknown addon type")
)

// Tier is a named subscription plan. Tiers form a strict ordering
// (starter < basic < pro) used for minimum-tier checks.
type Tier string

const (
	TierStarter Tier = "starter"
	TierBasic   Tier = "basic"
	TierPro     Tier = "pro"
)

var tierRank = map[Tier]int{
	TierStarter: 0,
	TierBasic:   1,
	TierPro:     2,
}

func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// AtLeast reports whether t is the given tier or higher.
// Unknown tiers rank below starter.
func (t Tier) AtLeast(min Tier) bool {
	return tierRank[t] >= tierRank[min] && t.Valid()
}

// ResourceType is a countable, quota-limited entity.
type ResourceType string

const (
	ResourceWebsite      ResourceType = "website"
	ResourceMenuItem     ResourceType = "menu_item"
	ResourceAIHero       ResourceType = "ai_hero_generation"
	ResourceAIMenuImage  ResourceType = "ai_menu_image"
	ResourceDeliveryZone ResourceType = "delivery_zone"
	ResourceRider        ResourceType = "rider"
)

// AddonType is a one-shot purchasable quota credit.
type AddonType string

const (
	AddonWebsite      AddonType = "website"
	AddonAIHero       AddonType = "ai_hero_generation"
	AddonAIMenuImage  AddonType = "ai_menu_image"
	AddonDeliveryZone AddonType = "delivery_zone"
	AddonRider        AddonType = "rider"
)

// Limit is a tagged quota value: either Unlimited or Bounded(n).
// The zero value is Bounded(0), i.e. the resource is not included.
type Limit struct {
	unlimited bool
	n         int
}

func Unlimited() Limit            { return Limit{unlimited: true} }
func Bounded(n int) Limit         { return Limit{n: n} }
func (l Limit) IsUnlimited() bool { return l.unlimited }

// Value returns the bounded limit. Only meaningful when !IsUnlimited.
func (l Limit) Value() int { return l.n }

// Allows reports whether one more unit fits under the limit.
func (l Limit) Allows(current int) bool {
	return l.unlimited || current < l.n
}

// PlanLimits holds the per-resource limits of a tier as named fields, so an
// unknown resource name is a construction-time error rather than a silent nil.
type PlanLimits struct {
	Websites          Limit
	MenuItems         Limit
	AIHeroGenerations Limit
	AIMenuImages      Limit
	DeliveryZones     Limit
	Riders            Limit
}

// For maps a resource type onto its limit field.
func (pl PlanLimits) For(res ResourceType) (Limit, error) {
	switch res {
	case ResourceWebsite:
		return pl.Websites, nil
	case ResourceMenuItem:
		return pl.MenuItems, nil
	case ResourceAIHero:
		return pl.AIHeroGenerations, nil
	case ResourceAIMenuImage:
		return pl.AIMenuImages, nil
	case ResourceDeliveryZone:
		return pl.DeliveryZones, nil
	case ResourceRider:
		return pl.Riders, nil
	default:
		return Limit{}, ErrUnknownResource
	}
}

// Plan is one subscription tier definition. Prices are in sen (RM cents).
type Plan struct {
	Tier            Tier
	MonthlyPriceSen int64
	// MonthlyReset controls whether usage counters reset each calendar
	// month or accumulate as a lifetime cap.
	MonthlyReset bool
	Limits       PlanLimits
}

// PeriodKey resolves the billing-period key for a usage counter under this
// plan: UTC year-month for monthly-reset tiers, "lifetime" otherwise.
func (p Plan) PeriodKey(now time.Time) string {
	if !p.MonthlyReset {
		return LifetimePeriod
	}
	return now.UTC().Format("2006-01")
}

// LifetimePeriod is the sentinel billing-period key for tiers whose usage
// accumulates forever instead of resetting monthly.
const LifetimePeriod = "lifetime"

// Catalog is the process-wide immutable plan and addon-price table.
type Catalog struct {
	plans       map[Tier]Plan
	addonPrices map[AddonType]int64
}

// Default returns the catalog for the published BinaApp pricing.
func Default() *Catalog {
	return &Catalog{
		plans: map[Tier]Plan{
			TierStarter: {
				Tier:            TierStarter,
				MonthlyPriceSen: 0,
				MonthlyReset:    false,
				Limits: PlanLimits{
					Websites:          Bounded(1),
					MenuItems:         Bounded(20),
					AIHeroGenerations: Bounded(3),
					AIMenuImages:      Bounded(5),
					DeliveryZones:     Bounded(1),
					Riders:            Bounded(0),
				},
			},
			TierBasic: {
				Tier:            TierBasic,
				MonthlyPriceSen: 4900,
				MonthlyReset:    true,
				Limits: PlanLimits{
					Websites:          Bounded(3),
					MenuItems:         Bounded(100),
					AIHeroGenerations: Bounded(20),
					AIMenuImages:      Bounded(30),
					DeliveryZones:     Bounded(5),
					Riders:            Bounded(3),
				},
			},
			TierPro: {
				Tier:            TierPro,
				MonthlyPriceSen: 9900,
				MonthlyReset:    true,
				Limits: PlanLimits{
					Websites:          Unlimited(),
					MenuItems:         Unlimited(),
					AIHeroGenerations: Bounded(100),
					AIMenuImages:      Unlimited(),
					DeliveryZones:     Bounded(15),
					Riders:            Bounded(10),
				},
			},
		},
		addonPrices: map[AddonType]int64{
			AddonWebsite:      1500,
			AddonAIHero:       500,
			AddonAIMenuImage:  500,
			AddonDeliveryZone: 1000,
			AddonRider:        1000,
		},
	}
}

// Plan returns the definition for a tier.
func (c *Catalog) Plan(tier Tier) (Plan, error) {
	p, ok := c.plans[tier]
	if !ok {
		return Plan{}, ErrUnknownTier
	}
	return p, nil
}

// LimitFor returns the limit a tier grants for a resource.
func (c *Catalog) LimitFor(tier Tier, res ResourceType) (Limit, error) {
	p, err := c.Plan(tier)
	if err != nil {
		return Limit{}, err
	}
	return p.Limits.For(res)
}

// IsUnlimited reports whether a tier has no cap on a resource.
func (c *Catalog) IsUnlimited(tier Tier, res ResourceType) (bool, error) {
	l, err := c.LimitFor(tier, res)
	if err != nil {
		return false, err
	}
	return l.IsUnlimited(), nil
}

// AddonPrice returns the one-shot credit price in sen for an addon type.
func (c *Catalog) AddonPrice(addon AddonType) (int64, error) {
	price, ok := c.addonPrices[addon]
	if !ok {
		return 0, ErrUnknownAddon
	}
	return price, nil
}

// AddonFor maps a resource type to its purchasable addon, if one is sold.
// Menu items have no addon: the only way past that limit is an upgrade.
func AddonFor(res ResourceType) (AddonType, bool) {
	switch res {
	case ResourceWebsite:
		return AddonWebsite, true
	case ResourceAIHero:
		return AddonAIHero, true
	case ResourceAIMenuImage:
		return AddonAIMenuImage, true
	case ResourceDeliveryZone:
		return AddonDeliveryZone, true
	case ResourceRider:
		return AddonRider, true
	default:
		return "", false
	}
}

// CanBuyAddon reports whether an addon purchase can lift the limit on res.
func (c *Catalog) CanBuyAddon(res ResourceType) bool {
	addon, ok := AddonFor(res)
	if !ok {
		return false
	}
	_, err := c.AddonPrice(addon)
	return err == nil
}
