package attendance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func worked(code string, d attendance.Date, minutes int) attendance.DailyRecord {
	status := attendance.StatusPresent
	if minutes < 360 {
		status = attendance.StatusPartial
	}
	return attendance.DailyRecord{EmployeeCode: code, Date: d, TotalMinutes: minutes, Status: status, PunchCount: 2}
}

func TestAggregateWeekly_OverworkedWeek_Green(t *testing.T) {
	// GIVEN: 3 office days totalling 1500 minutes under 3 x 8h
	week := attendance.DefaultCalendar.WeekFor(date(2025, time.January, 6))
	records := []attendance.DailyRecord{
		worked("E001", date(2025, time.January, 6), 500),
		worked("E001", date(2025, time.January, 7), 500),
		worked("E001", date(2025, time.January, 9), 500),
	}

	// WHEN: Aggregated for that week
	summaries := attendance.AggregateWeekly("E001", records, attendance.DefaultPolicy(), []attendance.Week{week})

	// THEN: 1440 expected, ~104.17%, GREEN, not capped
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, 3, s.WFODays)
	assert.Equal(t, 3, s.RequiredWFODays)
	assert.Equal(t, 1500, s.TotalMinutes)
	assert.Equal(t, 1440, s.ExpectedMinutes)
	assert.Equal(t, "104.17", s.CompliancePercentage.StringFixed(2))
	assert.Equal(t, attendance.ComplianceGreen, s.Status)
}

func TestAggregateWeekly_EmptyWindow_ZeroRed(t *testing.T) {
	week := attendance.DefaultCalendar.WeekFor(date(2025, time.January, 6))
	summaries := attendance.AggregateWeekly("E001", nil, attendance.DefaultPolicy(), []attendance.Week{week})

	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].WFODays)
	assert.True(t, summaries[0].CompliancePercentage.IsZero())
	assert.Equal(t, attendance.ComplianceRed, summaries[0].Status)
}

func TestAggregateWeekly_ZeroExpected_ZeroPercent(t *testing.T) {
	policy := attendance.DefaultPolicy()
	policy.WFODaysPerWeek = 0
	week := attendance.DefaultCalendar.WeekFor(date(2025, time.January, 6))

	summaries := attendance.AggregateWeekly("E001", []attendance.DailyRecord{
		worked("E001", date(2025, time.January, 6), 480),
	}, policy, []attendance.Week{week})

	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].CompliancePercentage.IsZero())
	assert.Equal(t, 0, summaries[0].ExpectedMinutes)
}

func TestAggregateWeekly_DerivesWindowsFromRecords(t *testing.T) {
	records := []attendance.DailyRecord{
		worked("E001", date(2025, time.January, 6), 480),
		worked("E001", date(2025, time.January, 14), 480),
		worked("E002", date(2025, time.January, 21), 480),
	}

	summaries := attendance.AggregateWeekly("E001", records, attendance.DefaultPolicy(), nil)

	require.Len(t, summaries, 2)
	assert.Equal(t, date(2025, time.January, 6), summaries[0].Week.Start)
	assert.Equal(t, date(2025, time.January, 13), summaries[1].Week.Start)
}

func TestAggregateWeekly_SumsEqualDailyTotals(t *testing.T) {
	// Property: the weekly total equals the sum of daily minutes in the window;
	// ABSENT days never count as office days.
	week := attendance.DefaultCalendar.WeekFor(date(2025, time.January, 6))
	records := []attendance.DailyRecord{
		worked("E001", date(2025, time.January, 6), 258),
		attendance.AbsentRecord("E001", date(2025, time.January, 7)),
		worked("E001", date(2025, time.January, 8), 540),
		worked("E001", date(2025, time.January, 13), 999), // next week
	}

	s := attendance.SummarizeWeek("E001", week, records, attendance.DefaultPolicy())

	assert.Equal(t, 798, s.TotalMinutes)
	assert.Equal(t, 2, s.WFODays)
	want := decimal.NewFromInt(798).Div(decimal.NewFromInt(1440)).Mul(decimal.NewFromInt(100))
	assert.True(t, want.Equal(s.CompliancePercentage))
	assert.Equal(t, attendance.ComplianceRed, s.Status)
}

func TestAggregateWeekly_CustomCalendar(t *testing.T) {
	cal := attendance.WeekCalendar{Start: time.Sunday}
	records := []attendance.DailyRecord{worked("E001", date(2025, time.January, 5), 480)}

	summaries := cal.AggregateWeekly("E001", records, attendance.DefaultPolicy(), nil)
	require.Len(t, summaries, 1)
	assert.Equal(t, time.Sunday, summaries[0].Week.Start.Weekday())
}
