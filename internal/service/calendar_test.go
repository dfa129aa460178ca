package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

func TestSlotsForFiltersAndSorts(t *testing.T) {
	cal := NewCalendar(newFakeCatalog(), nil)

	slots, err := cal.SlotsFor(context.Background(), "th1", "2026-10-19")
	require.NoError(t, err)

	var got []string
	for _, s := range slots {
		got = append(got, s.Time.String())
	}
	assert.Equal(t, []string{"10:00", "13:30", "18:30", "22:00"}, got)
}

func TestSlotsForDayWithoutSchedule(t *testing.T) {
	catalog := newFakeCatalog()
	delete(catalog.schedules, "th1|1") // Monday
	cal := NewCalendar(catalog, nil)

	slots, err := cal.SlotsFor(context.Background(), "th1", "2026-10-19")
	require.NoError(t, err)
	assert.Empty(t, slots)

	ok, err := cal.SlotExists(context.Background(), model.ShowtimeKey{TheatreID: "th1", Date: "2026-10-19", Time: ct("10:00")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlotsForRejectsBadDate(t *testing.T) {
	cal := NewCalendar(newFakeCatalog(), nil)
	_, err := cal.SlotsFor(context.Background(), "th1", "19/10/2026")
	assert.True(t, model.IsValidation(err))
}

func TestClassify(t *testing.T) {
	holidays, err := NewStaticHolidays([]string{"2026-12-25", "2026-10-17"})
	require.NoError(t, err)
	cal := NewCalendar(newFakeCatalog(), holidays)
	ctx := context.Background()

	cases := map[string]model.DayType{
		"2026-10-19": model.DayStandard,
		"2026-10-18": model.DayWeekend,
		"2026-12-25": model.DayHoliday,
		"2026-10-17": model.DayHoliday, // Saturday and holiday
	}
	for date, want := range cases {
		d, _ := time.Parse(model.DateLayout, date)
		got, err := cal.Classify(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, want, got, date)
	}
}

func TestStaticHolidaysRejectsBadDates(t *testing.T) {
	_, err := NewStaticHolidays([]string{"2026-13-01"})
	assert.Error(t, err)
}

type brokenHolidays struct{}

func (brokenHolidays) IsHoliday(context.Context, time.Time) (bool, error) {
	return false, errors.New("db down")
}

func TestMultiHolidayCalendar(t *testing.T) {
	a, _ := NewStaticHolidays([]string{"2026-01-01"})
	b, _ := NewStaticHolidays([]string{"2026-12-25"})
	multi := MultiHolidayCalendar{a, nil, b}

	d, _ := time.Parse(model.DateLayout, "2026-12-25")
	ok, err := multi.IsHoliday(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = MultiHolidayCalendar{brokenHolidays{}}.IsHoliday(context.Background(), d)
	assert.Error(t, err)
}
