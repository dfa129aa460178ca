package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day expressed as minutes since midnight.
type ClockTime int

// ParseClockTime parses "HH:MM" (24 hour clock).
func ParseClockTime(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 || len(h) > 2 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 || len(m) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime(hh*60 + mm), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText renders the clock time as HH:MM.
func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses HH:MM.
func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// OperatingHours is the window during which a theatre runs screenings.
// A Close earlier than Open means the window runs past midnight.
type OperatingHours struct {
	Open  ClockTime `json:"open"`
	Close ClockTime `json:"close"`
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w OperatingHours) Contains(t ClockTime) bool {
	if w.Close >= w.Open {
		return t >= w.Open && t <= w.Close
	}
	return t >= w.Open || t <= w.Close
}

// TheatreSchedule is the weekly template for one weekday of a theatre.
//
// Fields:
//
//	TheatreID      – theatre the row belongs to.
//	DayOfWeek      – 0 (Sunday) through 6 (Saturday).
//	AvailableSlots – declared screening start times.
//	OperatingHours – window that slots must fall inside.
type TheatreSchedule struct {
	TheatreID      string         `json:"theatre_id"`      // theatre_schedules.theatre_id
	DayOfWeek      time.Weekday   `json:"day_of_week"`     // theatre_schedules.day_of_week
	AvailableSlots []ClockTime    `json:"available_slots"` // theatre_schedules.available_slots (JSON)
	OperatingHours OperatingHours `json:"operating_hours"` // theatre_schedules.open_time / close_time
}
