package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// HolidayRepo answers holiday lookups from the holidays table.
type HolidayRepo struct {
	db *sql.DB
}

// NewHolidayRepo constructs a HolidayRepo.
func NewHolidayRepo(db *sql.DB) *HolidayRepo {
	return &HolidayRepo{db: db}
}

// IsHoliday reports whether date has a row in the holidays table.
func (r *HolidayRepo) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	const q = `SELECT 1 FROM holidays WHERE holiday_date = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, date.Format(model.DateLayout)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
