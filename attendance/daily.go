package attendance

import (
	"sort"
)

// =============================================================================
// DAILY AGGREGATOR
// =============================================================================

// DailyBatch is the outcome of aggregating one batch of rows.
type DailyBatch struct {
	Records   []DailyRecord // one per (employee, date), sorted by code then date
	Employees []Employee    // distinct employees among accepted rows, sorted by code
	RowsRead  int
	Accepted  int
	Rejected  []RowError
	Anomalies []Anomaly
}

type dayKey struct {
	code string
	date Date
}

// AggregateDaily validates rows, groups them by (employee, date) and
// reconciles each group into exactly one DailyRecord. Bad rows are reported
// in Rejected and never stop the batch.
func AggregateDaily(rows []PunchRow, policy PolicyConfig) DailyBatch {
	batch := DailyBatch{RowsRead: len(rows)}

	groups := make(map[dayKey][]PunchEvent)
	var keys []dayKey
	names := make(map[string]string)

	for _, row := range rows {
		if row.EmployeeCode == "" {
			batch.Rejected = append(batch.Rejected, RowError{Line: row.Line, Kind: ErrRowMissingEmployee})
			continue
		}
		if row.Date.IsZero() {
			batch.Rejected = append(batch.Rejected, RowError{
				Line:         row.Line,
				EmployeeCode: row.EmployeeCode,
				Kind:         ErrRowBadDate,
			})
			continue
		}
		batch.Accepted++

		if _, ok := names[row.EmployeeCode]; !ok || names[row.EmployeeCode] == "" {
			names[row.EmployeeCode] = row.EmployeeName
		}

		k := dayKey{code: row.EmployeeCode, date: row.Date}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
			groups[k] = nil
		}
		groups[k] = append(groups[k], row.Events()...)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].code != keys[j].code {
			return keys[i].code < keys[j].code
		}
		return keys[i].date.Before(keys[j].date)
	})

	batch.Records = make([]DailyRecord, 0, len(keys))
	for _, k := range keys {
		rec := Reconcile(groups[k], policy)
		// Rows with no times still name the key.
		rec.EmployeeCode = k.code
		rec.Date = k.date
		if rec.Anomaly != nil {
			batch.Anomalies = append(batch.Anomalies, *rec.Anomaly)
		}
		batch.Records = append(batch.Records, rec)
	}

	for code, name := range names {
		batch.Employees = append(batch.Employees, Employee{Code: code, Name: name})
	}
	sort.Slice(batch.Employees, func(i, j int) bool { return batch.Employees[i].Code < batch.Employees[j].Code })

	return batch
}
