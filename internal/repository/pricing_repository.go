package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// PricingRepo reads pricing tiers and per-theatre base prices.
type PricingRepo struct {
	db *sql.DB
}

// NewPricingRepo constructs a PricingRepo.
func NewPricingRepo(db *sql.DB) *PricingRepo {
	return &PricingRepo{db: db}
}

// Tier returns the multipliers of a pricing tier.  Multipliers are DECIMAL
// columns and are scanned as text so no precision is lost.
func (r *PricingRepo) Tier(ctx context.Context, id string) (*model.PricingTier, error) {
	const q = `SELECT id, name, base_multiplier, weekend_multiplier, holiday_multiplier
		FROM pricing_tiers WHERE id = ?`
	var (
		t                      model.PricingTier
		base, weekend, holiday string
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &base, &weekend, &holiday); err != nil {
		return nil, translate(err, "pricing tier %s", id)
	}
	var err error
	if t.Base, err = decimal.NewFromString(base); err != nil {
		return nil, fmt.Errorf("pricing tier %s base multiplier: %w", id, err)
	}
	if t.Weekend, err = decimal.NewFromString(weekend); err != nil {
		return nil, fmt.Errorf("pricing tier %s weekend multiplier: %w", id, err)
	}
	if t.Holiday, err = decimal.NewFromString(holiday); err != nil {
		return nil, fmt.Errorf("pricing tier %s holiday multiplier: %w", id, err)
	}
	return &t, nil
}

// TheatrePricing returns the base prices a theatre charges under a tier.
func (r *PricingRepo) TheatrePricing(ctx context.Context, theatreID, tierID string) (*model.TheatrePricing, error) {
	const q = `SELECT theatre_id, pricing_tier_id, normal, executive, premium, vip
		FROM theatre_pricing WHERE theatre_id = ? AND pricing_tier_id = ?`
	var p model.TheatrePricing
	err := r.db.QueryRowContext(ctx, q, theatreID, tierID).Scan(
		&p.TheatreID, &p.TierID, &p.Normal, &p.Executive, &p.Premium, &p.VIP,
	)
	if err != nil {
		return nil, translate(err, "pricing of theatre %s under tier %s", theatreID, tierID)
	}
	return &p, nil
}
