package attendance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func row(code string, d attendance.Date, in, out *attendance.ClockTime) attendance.PunchRow {
	return attendance.PunchRow{EmployeeCode: code, EmployeeName: "Name " + code, Date: d, InTime: in, OutTime: out}
}

func TestAggregateDaily_OneRecordPerKey(t *testing.T) {
	// GIVEN: Two rows for E001 on Monday (lunch split), one for E002, one for E001 Tuesday
	mon := date(2025, time.January, 6)
	tue := date(2025, time.January, 7)
	rows := []attendance.PunchRow{
		row("E002", mon, clockPtr(10, 0), clockPtr(16, 0)),
		row("E001", mon, clockPtr(13, 0), clockPtr(18, 0)),
		row("E001", tue, clockPtr(9, 0), clockPtr(12, 0)),
		row("E001", mon, clockPtr(9, 0), clockPtr(12, 0)),
	}

	// WHEN: Aggregated
	batch := attendance.AggregateDaily(rows, attendance.DefaultPolicy())

	// THEN: Three records, sorted by (code, date), outermost span per key
	require.Len(t, batch.Records, 3)
	assert.Equal(t, "E001", batch.Records[0].EmployeeCode)
	assert.Equal(t, mon, batch.Records[0].Date)
	assert.Equal(t, 540, batch.Records[0].TotalMinutes)
	assert.Equal(t, 4, batch.Records[0].PunchCount)
	assert.Equal(t, tue, batch.Records[1].Date)
	assert.Equal(t, "E002", batch.Records[2].EmployeeCode)

	assert.Equal(t, 4, batch.RowsRead)
	assert.Equal(t, 4, batch.Accepted)
	assert.Empty(t, batch.Rejected)
	require.Len(t, batch.Employees, 2)
	assert.Equal(t, "Name E001", batch.Employees[0].Name)
}

func TestAggregateDaily_RejectsBadRowsAndContinues(t *testing.T) {
	mon := date(2025, time.January, 6)
	rows := []attendance.PunchRow{
		{EmployeeCode: "E001", Date: attendance.Date{}, InTime: clockPtr(9, 0), Line: 2},
		{EmployeeCode: "", Date: mon, InTime: clockPtr(9, 0), Line: 3},
		row("E001", mon, clockPtr(9, 0), clockPtr(18, 0)),
	}

	batch := attendance.AggregateDaily(rows, attendance.DefaultPolicy())

	require.Len(t, batch.Records, 1)
	assert.Equal(t, 1, batch.Accepted)
	require.Len(t, batch.Rejected, 2)
	assert.True(t, errors.Is(&batch.Rejected[0], attendance.ErrRowBadDate))
	assert.True(t, errors.Is(&batch.Rejected[0], attendance.ErrIngestionRow))
	assert.True(t, errors.Is(&batch.Rejected[1], attendance.ErrRowMissingEmployee))
	assert.Contains(t, batch.Rejected[0].Error(), "row 2")
}

func TestAggregateDaily_RowWithoutTimes_Absent(t *testing.T) {
	mon := date(2025, time.January, 6)
	batch := attendance.AggregateDaily([]attendance.PunchRow{row("E001", mon, nil, nil)}, attendance.DefaultPolicy())

	require.Len(t, batch.Records, 1)
	rec := batch.Records[0]
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.Equal(t, "E001", rec.EmployeeCode)
	assert.Equal(t, mon, rec.Date)
}

func TestAggregateDaily_CollectsAnomalies(t *testing.T) {
	mon := date(2025, time.January, 6)
	batch := attendance.AggregateDaily([]attendance.PunchRow{
		row("E001", mon, clockPtr(9, 0), clockPtr(8, 59)),
	}, attendance.DefaultPolicy())

	require.Len(t, batch.Anomalies, 1)
	assert.Equal(t, "E001", batch.Anomalies[0].EmployeeCode)
	assert.Equal(t, mon, batch.Anomalies[0].Date)
}

func TestAggregateDaily_Deterministic(t *testing.T) {
	mon := date(2025, time.January, 6)
	rows := []attendance.PunchRow{
		row("E003", mon, clockPtr(9, 0), clockPtr(17, 0)),
		row("E001", mon, clockPtr(9, 0), clockPtr(17, 0)),
		row("E002", mon, clockPtr(9, 0), clockPtr(17, 0)),
	}
	a := attendance.AggregateDaily(rows, attendance.DefaultPolicy())
	b := attendance.AggregateDaily(rows, attendance.DefaultPolicy())
	assert.Equal(t, a.Records, b.Records)
	assert.Equal(t, a.Employees, b.Employees)
}
