package attendance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) attendance.Date {
	return attendance.NewDate(year, month, day)
}

func clock(h, m int) attendance.ClockTime {
	return attendance.NewClockTime(h, m)
}

func clockPtr(h, m int) *attendance.ClockTime {
	return attendance.NewClockTime(h, m).Ptr()
}

func event(h, m int, dir attendance.Direction) attendance.PunchEvent {
	return attendance.PunchEvent{
		EmployeeCode: "E001",
		EmployeeName: "Asha",
		Date:         date(2025, time.January, 6),
		Clock:        clock(h, m),
		Direction:    dir,
	}
}

// =============================================================================
// RECONCILER TESTS
// =============================================================================

func TestReconcile_InOutPair_CountsOutermostSpan(t *testing.T) {
	// GIVEN: IN 09:44, OUT 14:02 under the default policy
	// WHEN: Reconciled
	// THEN: 258 minutes, below the 6h presence threshold -> PARTIAL
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(9, 44, attendance.DirectionIn),
		event(14, 2, attendance.DirectionOut),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 258, rec.TotalMinutes)
	assert.Equal(t, attendance.StatusPartial, rec.Status)
	require.NotNil(t, rec.FirstIn)
	require.NotNil(t, rec.LastOut)
	assert.Equal(t, "09:44", rec.FirstIn.String())
	assert.Equal(t, "14:02", rec.LastOut.String())
	assert.Equal(t, "E001", rec.EmployeeCode)
}

func TestReconcile_FullDay_Present(t *testing.T) {
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(9, 0, attendance.DirectionIn),
		event(18, 0, attendance.DirectionOut),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 540, rec.TotalMinutes)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Nil(t, rec.Anomaly)
}

func TestReconcile_LunchBreak_DoesNotReduceTotal(t *testing.T) {
	// GIVEN: Four punches in arbitrary order with a lunch break in the middle
	// WHEN: Reconciled
	// THEN: Total is the outermost span; sessions show the two stints
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(13, 0, attendance.DirectionIn),
		event(18, 0, attendance.DirectionOut),
		event(9, 0, attendance.DirectionIn),
		event(12, 0, attendance.DirectionOut),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 540, rec.TotalMinutes)
	assert.Equal(t, 4, rec.PunchCount)
	require.Len(t, rec.Sessions, 2)
	assert.Equal(t, 180, rec.Sessions[0].Minutes)
	assert.Equal(t, 300, rec.Sessions[1].Minutes)
}

func TestReconcile_SinglePunch_ZeroMinutesPartial(t *testing.T) {
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(9, 30, attendance.DirectionIn),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 0, rec.TotalMinutes)
	assert.Equal(t, attendance.StatusPartial, rec.Status)
	assert.Equal(t, 1, rec.PunchCount)
	require.NotNil(t, rec.FirstIn)
	assert.Nil(t, rec.LastOut)
}

func TestReconcile_SinglePunch_PartialEvenWithZeroThreshold(t *testing.T) {
	policy := attendance.DefaultPolicy()
	policy.MinHoursForPresent = decimalOf(0)

	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(9, 30, attendance.DirectionUnknown),
	}, policy)

	assert.Equal(t, attendance.StatusPartial, rec.Status)
	require.NotNil(t, rec.FirstIn)
	require.NotNil(t, rec.LastOut)
}

func TestReconcile_Overnight_WrapsMidnight(t *testing.T) {
	// GIVEN: IN 22:00, OUT 06:00 on the same key
	// WHEN: Reconciled
	// THEN: last_out < first_in, so 24h is added -> 480 minutes
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(22, 0, attendance.DirectionIn),
		event(6, 0, attendance.DirectionOut),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 480, rec.TotalMinutes)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, "22:00", rec.FirstIn.String())
	assert.Equal(t, "06:00", rec.LastOut.String())
	assert.Nil(t, rec.Anomaly)
}

func TestReconcile_ClockSkew_ClampedAndFlagged(t *testing.T) {
	// GIVEN: OUT one minute before IN (device clock skew)
	// WHEN: Reconciled
	// THEN: The wrapped span (1439) exceeds 16h; clamp to 960 and flag
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(9, 0, attendance.DirectionIn),
		event(8, 59, attendance.DirectionOut),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 960, rec.TotalMinutes)
	require.NotNil(t, rec.Anomaly)
	assert.Equal(t, 1439, rec.Anomaly.RawMinutes)
	assert.Equal(t, 960, rec.Anomaly.ClampedTo)
	assert.True(t, errors.Is(rec.Anomaly, attendance.ErrAnomalousPunchSpan))
}

func TestReconcile_UnlabeledEvents_UseEarliestAndLatest(t *testing.T) {
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(17, 30, attendance.DirectionUnknown),
		event(8, 15, attendance.DirectionUnknown),
		event(12, 0, attendance.DirectionUnknown),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 555, rec.TotalMinutes)
	assert.Equal(t, "08:15", rec.FirstIn.String())
	assert.Equal(t, "17:30", rec.LastOut.String())
	require.Len(t, rec.Sessions, 2)
	assert.Nil(t, rec.Sessions[1].Out)
}

func TestReconcile_StrayEarlyOut_Ignored(t *testing.T) {
	// An OUT before the first IN does not open the day.
	rec := attendance.Reconcile([]attendance.PunchEvent{
		event(8, 0, attendance.DirectionOut),
		event(9, 0, attendance.DirectionIn),
		event(17, 0, attendance.DirectionOut),
	}, attendance.DefaultPolicy())

	assert.Equal(t, 480, rec.TotalMinutes)
	assert.Equal(t, "09:00", rec.FirstIn.String())
}

func TestReconcile_NoEvents_Absent(t *testing.T) {
	rec := attendance.Reconcile(nil, attendance.DefaultPolicy())
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.Equal(t, 0, rec.TotalMinutes)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	events := []attendance.PunchEvent{
		event(18, 0, attendance.DirectionOut),
		event(9, 0, attendance.DirectionIn),
	}
	attendance.Reconcile(events, attendance.DefaultPolicy())
	assert.Equal(t, clock(18, 0), events[0].Clock)
}

func TestReconcile_Property_TotalMatchesSpan(t *testing.T) {
	// For every pair of unlabeled punches, total = minutes_between(first, last).
	policy := attendance.DefaultPolicy()
	policy.MaxShiftHours = decimalOf(24)
	for a := 0; a < 24*60; a += 97 {
		for b := 0; b < 24*60; b += 89 {
			rec := attendance.Reconcile([]attendance.PunchEvent{
				event(a/60, a%60, attendance.DirectionUnknown),
				event(b/60, b%60, attendance.DirectionUnknown),
			}, policy)
			lo, hi := a, b
			if hi < lo {
				lo, hi = hi, lo
			}
			require.Equal(t, hi-lo, rec.TotalMinutes, "a=%d b=%d", a, b)
		}
	}
}
