package model

import "github.com/shopspring/decimal"

// PricingTier is a named bundle of multipliers applied on top of a
// theatre's per-tier base prices.  Many theatres may share a tier.
//
// Fields:
//
//	ID      – primary key identifier.
//	Name    – display name (e.g. "Metro", "Premium Plex").
//	Base    – multiplier for standard days.
//	Weekend – multiplier for Saturday and Sunday.
//	Holiday – multiplier for holidays (overrides weekend).
type PricingTier struct {
	ID      string          `json:"id"`      // pricing_tiers.id
	Name    string          `json:"name"`    // pricing_tiers.name
	Base    decimal.Decimal `json:"base"`    // pricing_tiers.base_multiplier
	Weekend decimal.Decimal `json:"weekend"` // pricing_tiers.weekend_multiplier
	Holiday decimal.Decimal `json:"holiday"` // pricing_tiers.holiday_multiplier
}

// Multiplier picks the multiplier for a day type.
func (p PricingTier) Multiplier(d DayType) decimal.Decimal {
	switch d {
	case DayHoliday:
		return p.Holiday
	case DayWeekend:
		return p.Weekend
	default:
		return p.Base
	}
}

// TheatrePricing holds the concrete base prices, in minor currency units,
// that a theatre charges per seat tier under one pricing tier.
type TheatrePricing struct {
	TheatreID string `json:"theatre_id"` // theatre_pricing.theatre_id
	TierID    string `json:"tier_id"`    // theatre_pricing.pricing_tier_id
	Normal    int64  `json:"normal"`     // theatre_pricing.normal
	Executive int64  `json:"executive"`  // theatre_pricing.executive
	Premium   int64  `json:"premium"`    // theatre_pricing.premium
	VIP       int64  `json:"vip"`        // theatre_pricing.vip
}

// Base returns the base price for a seat tier.
func (p TheatrePricing) Base(t SeatTier) (int64, bool) {
	switch t {
	case TierNormal:
		return p.Normal, true
	case TierExecutive:
		return p.Executive, true
	case TierPremium:
		return p.Premium, true
	case TierVIP:
		return p.VIP, true
	}
	return 0, false
}

// TierPrices maps each seat tier to its effective price for a date.
type TierPrices map[SeatTier]int64
