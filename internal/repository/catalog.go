package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// CatalogRepo serves all reference data from MySQL by composing the
// per-table repositories.
type CatalogRepo struct {
	Theatres  *TheatreRepo
	Templates *SeatTemplateRepo
	Pricing   *PricingRepo
	Schedules *ScheduleRepo
	Holidays  *HolidayRepo
}

// NewCatalogRepo builds every reference repository over db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{
		Theatres:  NewTheatreRepo(db),
		Templates: NewSeatTemplateRepo(db),
		Pricing:   NewPricingRepo(db),
		Schedules: NewScheduleRepo(db),
		Holidays:  NewHolidayRepo(db),
	}
}

func (c *CatalogRepo) Theatre(ctx context.Context, id string) (*model.Theatre, error) {
	return c.Theatres.GetByID(ctx, id)
}

func (c *CatalogRepo) SeatTemplate(ctx context.Context, theatreID string) (*model.SeatTemplate, error) {
	return c.Templates.GetByTheatre(ctx, theatreID)
}

func (c *CatalogRepo) TheatrePricing(ctx context.Context, theatreID, tierID string) (*model.TheatrePricing, error) {
	return c.Pricing.TheatrePricing(ctx, theatreID, tierID)
}

func (c *CatalogRepo) TheatreSchedule(ctx context.Context, theatreID string, day time.Weekday) (*model.TheatreSchedule, error) {
	return c.Schedules.ForDay(ctx, theatreID, day)
}

func (c *CatalogRepo) PricingTier(ctx context.Context, tierID string) (*model.PricingTier, error) {
	return c.Pricing.Tier(ctx, tierID)
}
