package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func TestMemory_UpsertEmployees_FillsMissingName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.UpsertEmployees(ctx, []attendance.Employee{{Code: "E001"}})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = m.UpsertEmployees(ctx, []attendance.Employee{{Code: "E001", Name: "Asha"}})
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	emp, err := m.GetEmployee(ctx, "E001")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "Asha", emp.Name)

	// A known name is never overwritten by ingestion.
	_, err = m.UpsertEmployees(ctx, []attendance.Employee{{Code: "E001", Name: "Other"}})
	require.NoError(t, err)
	emp, _ = m.GetEmployee(ctx, "E001")
	assert.Equal(t, "Asha", emp.Name)
}

func TestMemory_UpdateEmployee_NotFound(t *testing.T) {
	err := NewMemory().UpdateEmployee(context.Background(), attendance.Employee{Code: "nope"})
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
}

func TestMemory_LoadDailyRecords_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	d := func(day int) attendance.Date { return attendance.NewDate(2025, time.January, day) }

	_, _, err := m.ReplaceDailyRecords(ctx, []attendance.DailyRecord{
		{EmployeeCode: "E002", Date: d(6)},
		{EmployeeCode: "E001", Date: d(8)},
		{EmployeeCode: "E001", Date: d(6)},
		{EmployeeCode: "E001", Date: d(20)},
	})
	require.NoError(t, err)

	recs, err := m.LoadDailyRecords(ctx, attendance.DailyQuery{EmployeeCode: "E001", From: d(6), To: d(12)})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, d(6), recs[0].Date)
	assert.Equal(t, d(8), recs[1].Date)

	dates, err := m.RecordDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []attendance.Date{d(6), d(8), d(20)}, dates)
}

func TestMemory_SavePolicy_InvalidKeepsPrior(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p := attendance.DefaultPolicy()
	p.WFODaysPerWeek = 4
	p.WFHDaysPerWeek = 1
	require.NoError(t, m.SavePolicy(ctx, p))

	bad := p
	bad.ThresholdRed = bad.ThresholdAmber
	err := m.SavePolicy(ctx, bad)
	assert.ErrorIs(t, err, attendance.ErrConfigInvalid)

	loaded, err := m.LoadPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.WFODaysPerWeek)
}

func TestTxMemory_RollbackIncludesReset(t *testing.T) {
	ctx := context.Background()
	tm := NewTxMemory()
	_, err := tm.UpsertEmployees(ctx, []attendance.Employee{{Code: "E001"}})
	require.NoError(t, err)
	require.NoError(t, tm.AppendPunchLogs(ctx, "b1", []attendance.PunchRow{{EmployeeCode: "E001"}}))

	err = tm.WithTx(ctx, func(s attendance.Store) error {
		if err := s.Reset(ctx); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	emps, err := tm.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 1)
	assert.Equal(t, 1, tm.PunchLogCount())
}

func TestMemory_ListIngestionRuns_NewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, m.SaveIngestionRun(ctx, attendance.IngestionRun{ID: id}))
	}
	runs, err := m.ListIngestionRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)
}
