package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// Resolver computes seat prices from a theatre's base prices, its pricing
// tier's multipliers and the calendar.  Prices are a pure function of those
// inputs and the date.
type Resolver struct {
	catalog  Catalog
	calendar *Calendar
}

// NewResolver builds a Resolver.
func NewResolver(catalog Catalog, calendar *Calendar) *Resolver {
	return &Resolver{catalog: catalog, calendar: calendar}
}

// PriceFor returns the price of one seat tier at theatreID under tierID on
// date, in minor currency units.
func (r *Resolver) PriceFor(ctx context.Context, theatreID, tierID string, seatTier model.SeatTier, date time.Time) (int64, error) {
	if !seatTier.IsValid() {
		return 0, model.Misconfigured("unknown seat tier %q", seatTier)
	}
	pricing, tier, err := r.load(ctx, theatreID, tierID)
	if err != nil {
		return 0, err
	}
	dayType, err := r.calendar.Classify(ctx, date)
	if err != nil {
		return 0, err
	}
	return price(pricing, tier, seatTier, dayType)
}

// PricesFor returns the price of every seat tier on date along with the
// day type used.
func (r *Resolver) PricesFor(ctx context.Context, theatreID, tierID string, date time.Time) (model.TierPrices, model.DayType, error) {
	pricing, tier, err := r.load(ctx, theatreID, tierID)
	if err != nil {
		return nil, "", err
	}
	dayType, err := r.calendar.Classify(ctx, date)
	if err != nil {
		return nil, "", err
	}
	out := make(model.TierPrices, len(model.SeatTiers))
	for _, st := range model.SeatTiers {
		p, err := price(pricing, tier, st, dayType)
		if err != nil {
			return nil, "", err
		}
		out[st] = p
	}
	return out, dayType, nil
}

func (r *Resolver) load(ctx context.Context, theatreID, tierID string) (*model.TheatrePricing, *model.PricingTier, error) {
	pricing, err := r.catalog.TheatrePricing(ctx, theatreID, tierID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, model.Misconfigured("no pricing for theatre %s under tier %s", theatreID, tierID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load theatre pricing: %w", err)
	}
	tier, err := r.catalog.PricingTier(ctx, tierID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, model.Misconfigured("no multipliers for pricing tier %s", tierID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load pricing tier: %w", err)
	}
	return pricing, tier, nil
}

// price is round(base × multiplier), half away from zero.
func price(pricing *model.TheatrePricing, tier *model.PricingTier, seatTier model.SeatTier, dayType model.DayType) (int64, error) {
	base, ok := pricing.Base(seatTier)
	if !ok {
		return 0, model.Misconfigured("unknown seat tier %q", seatTier)
	}
	if base < 0 {
		return 0, model.Misconfigured("negative base price for %s at theatre %s", seatTier, pricing.TheatreID)
	}
	mult := tier.Multiplier(dayType)
	if mult.IsNegative() {
		return 0, model.Misconfigured("negative %s multiplier on pricing tier %s", dayType, tier.ID)
	}
	return decimal.NewFromInt(base).Mul(mult).Round(0).IntPart(), nil
}
