package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a showtime date.
const DateLayout = "2006-01-02"

// DayType classifies a date for pricing purposes.
type DayType string

const (
	DayStandard DayType = "standard"
	DayWeekend  DayType = "weekend"
	DayHoliday  DayType = "holiday"
)

// ShowtimeKey identifies one screening: a theatre, a date and a start time.
type ShowtimeKey struct {
	TheatreID string    `json:"theatre_id"`
	Date      string    `json:"date"`
	Time      ClockTime `json:"time"`
}

// NewShowtimeKey validates the date and time strings and builds a key.
func NewShowtimeKey(theatreID, date, clock string) (ShowtimeKey, error) {
	if strings.TrimSpace(theatreID) == "" {
		return ShowtimeKey{}, fmt.Errorf("theatre id is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ShowtimeKey{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	t, err := ParseClockTime(clock)
	if err != nil {
		return ShowtimeKey{}, err
	}
	return ShowtimeKey{TheatreID: theatreID, Date: date, Time: t}, nil
}

// String is the storage form "theatre|date|HH:MM".
func (k ShowtimeKey) String() string {
	return k.TheatreID + "|" + k.Date + "|" + k.Time.String()
}

// Day parses the date part in UTC.
func (k ShowtimeKey) Day() (time.Time, error) {
	return time.Parse(DateLayout, k.Date)
}

// ShowSlot is a derived screening offered by a theatre.  Slots are not
// persisted on their own; a booking references one through its key.
type ShowSlot struct {
	TheatreID string    `json:"theatre_id"`
	Date      string    `json:"date"`
	Time      ClockTime `json:"time"`
}

// Key returns the showtime key of the slot.
func (s ShowSlot) Key() ShowtimeKey {
	return ShowtimeKey{TheatreID: s.TheatreID, Date: s.Date, Time: s.Time}
}
