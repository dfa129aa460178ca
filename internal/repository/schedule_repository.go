package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// ScheduleRepo reads the weekly schedule of a theatre.  Slots are stored as
// a JSON array of "HH:MM" strings.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// ForDay returns the schedule row of theatreID for a weekday.
func (r *ScheduleRepo) ForDay(ctx context.Context, theatreID string, day time.Weekday) (*model.TheatreSchedule, error) {
	const q = `SELECT theatre_id, day_of_week, available_slots, open_time, close_time
		FROM theatre_schedules WHERE theatre_id = ? AND day_of_week = ?`
	var (
		s             model.TheatreSchedule
		dow           int
		slots         []byte
		open, closeAt string
	)
	if err := r.db.QueryRowContext(ctx, q, theatreID, int(day)).Scan(&s.TheatreID, &dow, &slots, &open, &closeAt); err != nil {
		return nil, translate(err, "schedule of theatre %s on %s", theatreID, day)
	}
	s.DayOfWeek = time.Weekday(dow)
	if err := json.Unmarshal(slots, &s.AvailableSlots); err != nil {
		return nil, model.Misconfigured("schedule of theatre %s on %s: bad slots: %v", theatreID, day, err)
	}
	var err error
	if s.OperatingHours.Open, err = model.ParseClockTime(open); err != nil {
		return nil, model.Misconfigured("schedule of theatre %s on %s: %v", theatreID, day, err)
	}
	if s.OperatingHours.Close, err = model.ParseClockTime(closeAt); err != nil {
		return nil, model.Misconfigured("schedule of theatre %s on %s: %v", theatreID, day, err)
	}
	return &s, nil
}
