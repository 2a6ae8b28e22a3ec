/*
Package report composes attendance reports from stored daily records.

PURPOSE:
  The Report Composer is the read side of the engine. It loads daily
  records for the requested window, synthesizes ABSENT days that have no
  record, runs the Weekly Aggregator with the policy that is current at
  report time and classifies the results.

  Weekly summaries are never stored: changing the policy changes every
  report immediately and consistently.

REPORTS:
  Individual  - one employee over a date range (daily rows, weeks, rollup)
  Fleet       - every employee for one week, sortable and filterable
  Weeks       - week windows that have data, newest first
  DailyDetail - every employee on one day, filtered by presence
  Dashboard   - headline numbers for the latest week
  DailyStats  - office vs home head-count per day of a week

SEE ALSO:
  - attendance/weekly.go: Weekly Aggregator
  - export.go: flat tables for CSV and XLSX
*/
package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// Composer builds reports from a Store.
type Composer struct {
	Store    attendance.Store
	Calendar attendance.WeekCalendar
}

// NewComposer creates a composer with Monday weeks.
func NewComposer(store attendance.Store) *Composer {
	return &Composer{Store: store, Calendar: attendance.DefaultCalendar}
}

// Weeks returns the windows that contain at least one record, newest first.
func (c *Composer) Weeks(ctx context.Context) ([]attendance.Week, error) {
	dates, err := c.Store.RecordDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load record dates: %w", err)
	}
	weeks := c.Calendar.WeeksOf(dates)
	for i, j := 0, len(weeks)-1; i < j; i, j = i+1, j-1 {
		weeks[i], weeks[j] = weeks[j], weeks[i]
	}
	return weeks, nil
}

// resolveWeek returns the window containing start, or the latest window with
// data when start is zero. nil means there is no data at all.
func (c *Composer) resolveWeek(ctx context.Context, start attendance.Date) (*attendance.Week, error) {
	if !start.IsZero() {
		w := c.Calendar.WeekFor(start)
		return &w, nil
	}
	weeks, err := c.Weeks(ctx)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, nil
	}
	return &weeks[0], nil
}

// recordsByEmployee loads the records of a window grouped by employee code.
func (c *Composer) recordsByEmployee(ctx context.Context, rng attendance.DateRange) (map[string][]attendance.DailyRecord, error) {
	records, err := c.Store.LoadDailyRecords(ctx, attendance.DailyQuery{From: rng.From, To: rng.To})
	if err != nil {
		return nil, fmt.Errorf("load daily records: %w", err)
	}
	byCode := make(map[string][]attendance.DailyRecord)
	for _, r := range records {
		byCode[r.EmployeeCode] = append(byCode[r.EmployeeCode], r)
	}
	return byCode, nil
}

// StatusCounts is a histogram of compliance statuses.
type StatusCounts struct {
	Red   int `json:"RED"`
	Amber int `json:"AMBER"`
	Green int `json:"GREEN"`
}

func (s *StatusCounts) add(status attendance.ComplianceStatus) {
	switch status {
	case attendance.ComplianceRed:
		s.Red++
	case attendance.ComplianceAmber:
		s.Amber++
	case attendance.ComplianceGreen:
		s.Green++
	}
}

func average(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}
