package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

func weekRows() []attendance.PunchRow {
	return []attendance.PunchRow{
		row("E001", date(2025, time.January, 6), clockPtr(9, 0), clockPtr(18, 0)),
		row("E001", date(2025, time.January, 7), clockPtr(9, 44), clockPtr(14, 2)),
		row("E002", date(2025, time.January, 6), clockPtr(10, 0), clockPtr(17, 0)),
		row("E002", date(2025, time.January, 13), clockPtr(10, 0), clockPtr(17, 0)),
		{EmployeeCode: "E003", Line: 9},
	}
}

func TestIngest_WritesEverythingAndCounts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewTxMemory()
	ing := attendance.NewIngestor(mem, nil)

	result, err := ing.Ingest(ctx, "punches.csv", weekRows(), attendance.DefaultPolicy())
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 5, result.RowsRead)
	assert.Equal(t, 4, result.RecordsParsed)
	assert.Equal(t, 1, result.RowsRejected)
	assert.Equal(t, 2, result.EmployeesSeen)
	assert.Equal(t, 2, result.EmployeesCreated)
	assert.Equal(t, 4, result.DailySummariesCreated)
	assert.Equal(t, 0, result.DailySummariesUpdated)
	assert.Equal(t, 3, result.WeeklySummariesCreated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 9, result.Errors[0].Line)

	records, err := mem.LoadDailyRecords(ctx, attendance.DailyQuery{EmployeeCode: "E001"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 258, records[1].TotalMinutes)
	assert.Equal(t, 4, mem.PunchLogCount())

	runs, err := mem.ListIngestionRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, attendance.RunCompleted, runs[0].Status)
	assert.Equal(t, "punches.csv", runs[0].Source)
	assert.Equal(t, result.BatchID, runs[0].ID)
}

func TestIngest_Idempotent(t *testing.T) {
	// GIVEN: A batch already ingested
	// WHEN: The same batch is ingested again
	// THEN: Records are replaced, not duplicated, and are identical
	ctx := context.Background()
	mem := store.NewTxMemory()
	ing := attendance.NewIngestor(mem, nil)

	_, err := ing.Ingest(ctx, "a.csv", weekRows(), attendance.DefaultPolicy())
	require.NoError(t, err)
	before, err := mem.LoadDailyRecords(ctx, attendance.DailyQuery{})
	require.NoError(t, err)

	result, err := ing.Ingest(ctx, "a.csv", weekRows(), attendance.DefaultPolicy())
	require.NoError(t, err)
	after, err := mem.LoadDailyRecords(ctx, attendance.DailyQuery{})
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, 0, result.DailySummariesCreated)
	assert.Equal(t, 4, result.DailySummariesUpdated)
	assert.Equal(t, 0, result.EmployeesCreated)
}

func TestIngest_LaterBatchReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	mem := store.NewTxMemory()
	ing := attendance.NewIngestor(mem, nil)
	mon := date(2025, time.January, 6)

	_, err := ing.Ingest(ctx, "a.csv", []attendance.PunchRow{row("E001", mon, clockPtr(9, 0), clockPtr(18, 0))}, attendance.DefaultPolicy())
	require.NoError(t, err)
	_, err = ing.Ingest(ctx, "b.csv", []attendance.PunchRow{row("E001", mon, clockPtr(10, 0), clockPtr(12, 0))}, attendance.DefaultPolicy())
	require.NoError(t, err)

	records, err := mem.LoadDailyRecords(ctx, attendance.DailyQuery{EmployeeCode: "E001"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 120, records[0].TotalMinutes)
	assert.Equal(t, attendance.StatusPartial, records[0].Status)
}

func TestIngest_NoValidRows(t *testing.T) {
	ctx := context.Background()
	mem := store.NewTxMemory()
	ing := attendance.NewIngestor(mem, nil)

	result, err := ing.Ingest(ctx, "bad.csv", []attendance.PunchRow{{Line: 2}}, attendance.DefaultPolicy())
	assert.ErrorIs(t, err, attendance.ErrNoValidRows)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.RowsRejected)

	emps, err := mem.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, emps)
}

type failingTx struct {
	*store.TxMemory
}

func (f failingTx) WithTx(ctx context.Context, fn func(attendance.Store) error) error {
	return f.TxMemory.WithTx(ctx, func(s attendance.Store) error {
		return fn(failOnReplace{s})
	})
}

type failOnReplace struct {
	attendance.Store
}

func (failOnReplace) ReplaceDailyRecords(context.Context, []attendance.DailyRecord) (int, int, error) {
	return 0, 0, errors.New("disk full")
}

func TestIngest_FailureRollsBackBatch(t *testing.T) {
	// GIVEN: A store that fails while writing daily records
	// WHEN: A batch is ingested
	// THEN: Nothing from the batch is visible and a failed run is logged
	ctx := context.Background()
	mem := store.NewTxMemory()
	ing := attendance.NewIngestor(failingTx{mem}, nil)

	_, err := ing.Ingest(ctx, "a.csv", weekRows(), attendance.DefaultPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	emps, err := mem.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, emps)
	assert.Equal(t, 0, mem.PunchLogCount())

	runs, err := mem.ListIngestionRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, attendance.RunFailed, runs[0].Status)
}

func TestIngest_ReportsAnomalies(t *testing.T) {
	ctx := context.Background()
	ing := attendance.NewIngestor(store.NewTxMemory(), nil)

	result, err := ing.Ingest(ctx, "a.csv", []attendance.PunchRow{
		row("E001", date(2025, time.January, 6), clockPtr(9, 0), clockPtr(8, 59)),
	}, attendance.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, 1439, result.Anomalies[0].RawMinutes)
}
