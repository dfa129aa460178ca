package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestResolver(catalog *fakeCatalog) *Resolver {
	holidays, _ := NewStaticHolidays([]string{"2026-12-25"})
	return NewResolver(catalog, NewCalendar(catalog, holidays))
}

func TestPriceForDayTypes(t *testing.T) {
	r := newTestResolver(newFakeCatalog())
	ctx := context.Background()

	p, err := r.PriceFor(ctx, "th1", "metro", model.TierNormal, day("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p)

	p, err = r.PriceFor(ctx, "th1", "metro", model.TierPremium, day("2026-10-17"))
	require.NoError(t, err)
	assert.Equal(t, int64(2500), p)

	p, err = r.PriceFor(ctx, "th1", "metro", model.TierVIP, day("2026-12-25"))
	require.NoError(t, err)
	assert.Equal(t, int64(4500), p)
}

func TestPriceRoundsHalfAwayFromZero(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.pricing["th1|metro"].Normal = 1004
	catalog.tiers["metro"].Base = decimal.RequireFromString("1.125")
	r := newTestResolver(catalog)

	// 1004 * 1.125 = 1129.5
	p, err := r.PriceFor(context.Background(), "th1", "metro", model.TierNormal, day("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, int64(1130), p)
}

func TestPriceForIsDeterministic(t *testing.T) {
	r := newTestResolver(newFakeCatalog())
	ctx := context.Background()
	first, err := r.PriceFor(ctx, "th1", "metro", model.TierExecutive, day("2026-10-18"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.PriceFor(ctx, "th1", "metro", model.TierExecutive, day("2026-10-18"))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPriceForConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	r := newTestResolver(newFakeCatalog())
	_, err := r.PriceFor(ctx, "th1", "imax", model.TierNormal, day("2026-10-19"))
	assert.True(t, model.IsConfiguration(err), "no pricing row")

	catalog := newFakeCatalog()
	catalog.pricing["th1|gold"] = &model.TheatrePricing{TheatreID: "th1", TierID: "gold", Normal: 100}
	_, err = newTestResolver(catalog).PriceFor(ctx, "th1", "gold", model.TierNormal, day("2026-10-19"))
	assert.True(t, model.IsConfiguration(err), "no multipliers")

	_, err = r.PriceFor(ctx, "th1", "metro", model.SeatTier("BALCONY"), day("2026-10-19"))
	assert.True(t, model.IsConfiguration(err), "unknown seat tier")

	catalog = newFakeCatalog()
	catalog.pricing["th1|metro"].VIP = -1
	_, err = newTestResolver(catalog).PriceFor(ctx, "th1", "metro", model.TierVIP, day("2026-10-19"))
	assert.True(t, model.IsConfiguration(err), "negative base")

	catalog = newFakeCatalog()
	catalog.tiers["metro"].Weekend = decimal.RequireFromString("-1")
	_, err = newTestResolver(catalog).PriceFor(ctx, "th1", "metro", model.TierVIP, day("2026-10-17"))
	assert.True(t, model.IsConfiguration(err), "negative multiplier")
}

func TestPricesForAllTiers(t *testing.T) {
	r := newTestResolver(newFakeCatalog())
	prices, dt, err := r.PricesFor(context.Background(), "th1", "metro", day("2026-10-18"))
	require.NoError(t, err)
	assert.Equal(t, model.DayWeekend, dt)
	assert.Equal(t, model.TierPrices{
		model.TierNormal:    1250,
		model.TierExecutive: 1875,
		model.TierPremium:   2500,
		model.TierVIP:       3750,
	}, prices)
}
