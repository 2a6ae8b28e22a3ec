package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func TestWeekFor_MondayCalendar(t *testing.T) {
	cal := attendance.DefaultCalendar

	// Wednesday 8 Jan 2025 -> Mon 6 .. Sun 12
	w := cal.WeekFor(date(2025, time.January, 8))
	assert.Equal(t, date(2025, time.January, 6), w.Start)
	assert.Equal(t, date(2025, time.January, 12), w.End)

	// Sunday belongs to the week that started the previous Monday.
	w = cal.WeekFor(date(2025, time.January, 12))
	assert.Equal(t, date(2025, time.January, 6), w.Start)

	// Monday starts its own week.
	w = cal.WeekFor(date(2025, time.January, 13))
	assert.Equal(t, date(2025, time.January, 13), w.Start)
}

func TestWeekFor_SundayCalendar(t *testing.T) {
	cal := attendance.WeekCalendar{Start: time.Sunday}
	w := cal.WeekFor(date(2025, time.January, 8))
	assert.Equal(t, date(2025, time.January, 5), w.Start)
	assert.Equal(t, date(2025, time.January, 11), w.End)
	assert.Len(t, w.Days(), 7)
}

func TestWeeksBetween_SpansPartialWeeks(t *testing.T) {
	weeks := attendance.DefaultCalendar.WeeksBetween(date(2025, time.January, 10), date(2025, time.January, 21))
	require.Len(t, weeks, 3)
	assert.Equal(t, date(2025, time.January, 6), weeks[0].Start)
	assert.Equal(t, date(2025, time.January, 20), weeks[2].Start)
}

func TestWeeksOf_DistinctAndSorted(t *testing.T) {
	weeks := attendance.DefaultCalendar.WeeksOf([]attendance.Date{
		date(2025, time.January, 15),
		date(2025, time.January, 7),
		date(2025, time.January, 8),
	})
	require.Len(t, weeks, 2)
	assert.Equal(t, date(2025, time.January, 6), weeks[0].Start)
	assert.Equal(t, date(2025, time.January, 13), weeks[1].Start)
}

func TestParseWeekday(t *testing.T) {
	d, err := attendance.ParseWeekday("Monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = attendance.ParseWeekday("sun")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	_, err = attendance.ParseWeekday("someday")
	assert.Error(t, err)
}

func TestParseDateAndClock(t *testing.T) {
	d, err := attendance.ParseDate("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2025-01-06", d.String())

	_, err = attendance.ParseDate("06/01/2025")
	assert.Error(t, err)

	c, err := attendance.ParseClock("09:44:59")
	require.NoError(t, err)
	assert.Equal(t, "09:44", c.String())

	assert.Equal(t, 480, attendance.MinutesBetween(clock(22, 0), clock(6, 0)))
}

func TestDateRange(t *testing.T) {
	r := attendance.DateRange{From: date(2025, time.January, 6), To: date(2025, time.January, 8)}
	assert.Len(t, r.Days(), 3)
	assert.True(t, r.Contains(date(2025, time.January, 8)))
	assert.False(t, r.Contains(date(2025, time.January, 9)))
	assert.NoError(t, r.Validate())

	bad := attendance.DateRange{From: r.To, To: r.From}
	assert.ErrorIs(t, bad.Validate(), attendance.ErrInvalidRange)

	open := attendance.DateRange{From: date(2025, time.January, 6)}
	assert.True(t, open.Contains(date(2030, time.January, 1)))
}
