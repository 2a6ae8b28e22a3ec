package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// DailyRow is one day of an individual report. Compliance is measured
// against a single expected day.
type DailyRow struct {
	attendance.DailyRecord
	Compliance       decimal.Decimal
	ComplianceStatus attendance.ComplianceStatus
}

// IndividualSummary is the rollup over the whole range.
type IndividualSummary struct {
	TotalMinutes      int
	WFODays           int
	AverageCompliance decimal.Decimal
	OverallStatus     attendance.ComplianceStatus
}

// IndividualReport covers one employee over a date range.
type IndividualReport struct {
	Employee attendance.Employee
	Range    attendance.DateRange
	Days     []DailyRow
	Weeks    []attendance.WeeklySummary
	Summary  IndividualSummary
}

// Individual reports on one employee. An open range end is taken from the
// employee's earliest or latest record. Every day in the range appears
// exactly once; days without a record are ABSENT.
func (c *Composer) Individual(ctx context.Context, code string, rng attendance.DateRange, policy attendance.PolicyConfig) (*IndividualReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	emp, err := c.Store.GetEmployee(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load employee %s: %w", code, err)
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: %s", attendance.ErrEmployeeNotFound, code)
	}

	records, err := c.Store.LoadDailyRecords(ctx, attendance.DailyQuery{EmployeeCode: code, From: rng.From, To: rng.To})
	if err != nil {
		return nil, fmt.Errorf("load daily records: %w", err)
	}

	if len(records) > 0 {
		if rng.From.IsZero() {
			rng.From = records[0].Date
		}
		if rng.To.IsZero() {
			rng.To = records[len(records)-1].Date
		}
	}

	rep := &IndividualReport{Employee: *emp, Range: rng}
	if !rng.Bounded() {
		rep.Summary.OverallStatus = policy.Classify(decimal.Zero)
		return rep, nil
	}

	byDate := make(map[attendance.Date]attendance.DailyRecord, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	expectedDay := policy.ExpectedMinutesFor(1)
	for _, d := range rng.Days() {
		rec, ok := byDate[d]
		if !ok {
			rec = attendance.AbsentRecord(code, d)
		}

		pct := attendance.Compliance(rec.TotalMinutes, expectedDay)
		rep.Days = append(rep.Days, DailyRow{
			DailyRecord:      rec,
			Compliance:       pct,
			ComplianceStatus: policy.Classify(pct),
		})

		rep.Summary.TotalMinutes += rec.TotalMinutes
		if rec.WorkedInOffice() {
			rep.Summary.WFODays++
		}
	}

	// Weekly summaries always cover whole windows, even when the range
	// starts or ends mid-week.
	weeks := c.Calendar.WeeksBetween(rng.From, rng.To)
	weekRecords := records
	if len(weeks) > 0 {
		span := attendance.DateRange{From: weeks[0].Start, To: weeks[len(weeks)-1].End}
		if span.From.Before(rng.From) || span.To.After(rng.To) {
			weekRecords, err = c.Store.LoadDailyRecords(ctx, attendance.DailyQuery{EmployeeCode: code, From: span.From, To: span.To})
			if err != nil {
				return nil, fmt.Errorf("load weekly records: %w", err)
			}
		}
	}
	rep.Weeks = c.Calendar.AggregateWeekly(code, weekRecords, policy, weeks)

	sum := decimal.Zero
	for _, w := range rep.Weeks {
		sum = sum.Add(w.CompliancePercentage)
	}
	rep.Summary.AverageCompliance = average(sum, len(rep.Weeks))
	rep.Summary.OverallStatus = policy.Classify(rep.Summary.AverageCompliance)
	return rep, nil
}
