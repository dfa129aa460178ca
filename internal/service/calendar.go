package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// Catalog is the read-only reference data maintained by the back office.
// Implementations return an error wrapping model.ErrNotFound for missing
// rows.
type Catalog interface {
	Theatre(ctx context.Context, id string) (*model.Theatre, error)
	SeatTemplate(ctx context.Context, theatreID string) (*model.SeatTemplate, error)
	TheatrePricing(ctx context.Context, theatreID, tierID string) (*model.TheatrePricing, error)
	TheatreSchedule(ctx context.Context, theatreID string, day time.Weekday) (*model.TheatreSchedule, error)
	PricingTier(ctx context.Context, tierID string) (*model.PricingTier, error)
}

// HolidayCalendar answers whether a date is a public holiday.
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// StaticHolidays is a fixed set of YYYY-MM-DD dates.
type StaticHolidays map[string]struct{}

// NewStaticHolidays validates dates and builds the set.
func NewStaticHolidays(dates []string) (StaticHolidays, error) {
	set := make(StaticHolidays, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid holiday %q: want YYYY-MM-DD", d)
		}
		set[d] = struct{}{}
	}
	return set, nil
}

func (s StaticHolidays) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	_, ok := s[date.Format(model.DateLayout)]
	return ok, nil
}

// MultiHolidayCalendar reports a holiday when any member does.
type MultiHolidayCalendar []HolidayCalendar

func (m MultiHolidayCalendar) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	for _, c := range m {
		if c == nil {
			continue
		}
		ok, err := c.IsHoliday(ctx, date)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Calendar derives bookable showtimes from weekly schedules and classifies
// dates for pricing.  It holds no state of its own.
type Calendar struct {
	catalog  Catalog
	holidays HolidayCalendar
}

// NewCalendar builds a Calendar.  A nil holiday calendar means no holidays.
func NewCalendar(catalog Catalog, holidays HolidayCalendar) *Calendar {
	if holidays == nil {
		holidays = StaticHolidays{}
	}
	return &Calendar{catalog: catalog, holidays: holidays}
}

// ParseDate parses a YYYY-MM-DD date or returns a validation error.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return time.Time{}, model.Invalid("date", "invalid date %q: want YYYY-MM-DD", date)
	}
	return d, nil
}

// SlotsFor lists the showtimes a theatre offers on date, ascending.  A
// weekday without a schedule row yields no slots.
func (c *Calendar) SlotsFor(ctx context.Context, theatreID, date string) ([]model.ShowSlot, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	sched, err := c.catalog.TheatreSchedule(ctx, theatreID, day.Weekday())
	if errors.Is(err, model.ErrNotFound) {
		return []model.ShowSlot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", theatreID, err)
	}

	seen := make(map[model.ClockTime]struct{}, len(sched.AvailableSlots))
	times := make([]model.ClockTime, 0, len(sched.AvailableSlots))
	for _, t := range sched.AvailableSlots {
		if !sched.OperatingHours.Contains(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	slots := make([]model.ShowSlot, 0, len(times))
	for _, t := range times {
		slots = append(slots, model.ShowSlot{TheatreID: theatreID, Date: date, Time: t})
	}
	return slots, nil
}

// SlotExists reports whether key names a slot SlotsFor would list.
func (c *Calendar) SlotExists(ctx context.Context, key model.ShowtimeKey) (bool, error) {
	slots, err := c.SlotsFor(ctx, key.TheatreID, key.Date)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s.Time == key.Time {
			return true, nil
		}
	}
	return false, nil
}

// Classify returns the day type of date.  Holiday beats weekend.
func (c *Calendar) Classify(ctx context.Context, date time.Time) (model.DayType, error) {
	holiday, err := c.holidays.IsHoliday(ctx, date)
	if err != nil {
		return "", fmt.Errorf("holiday lookup: %w", err)
	}
	if holiday {
		return model.DayHoliday, nil
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return model.DayWeekend, nil
	}
	return model.DayStandard, nil
}
