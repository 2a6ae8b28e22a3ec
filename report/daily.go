package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// DAILY DETAIL
// =============================================================================

// Presence filters for DailyDetail. WFO/WFH split on worked office minutes;
// the others match the daily status.
const (
	FilterAll     = ""
	FilterPresent = "PRESENT"
	FilterPartial = "PARTIAL"
	FilterAbsent  = "ABSENT"
	FilterWFO     = "WFO"
	FilterWFH     = "WFH"
)

// DailyDetailRow is one employee on one day.
type DailyDetailRow struct {
	Employee attendance.Employee
	Record   attendance.DailyRecord
}

// DailyDetail lists every known employee for a day, ordered by code.
// Employees without a record for the day appear as ABSENT.
func (c *Composer) DailyDetail(ctx context.Context, day attendance.Date, filter string) ([]DailyDetailRow, error) {
	filter = strings.ToUpper(strings.TrimSpace(filter))
	match, err := presenceFilter(filter)
	if err != nil {
		return nil, err
	}

	employees, err := c.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	byCode, err := c.recordsByEmployee(ctx, attendance.DateRange{From: day, To: day})
	if err != nil {
		return nil, err
	}

	var rows []DailyDetailRow
	for _, emp := range employees {
		rec := attendance.AbsentRecord(emp.Code, day)
		if recs := byCode[emp.Code]; len(recs) > 0 {
			rec = recs[0]
		}
		if match(rec) {
			rows = append(rows, DailyDetailRow{Employee: emp, Record: rec})
		}
	}
	return rows, nil
}

func presenceFilter(filter string) (func(attendance.DailyRecord) bool, error) {
	switch filter {
	case FilterAll:
		return func(attendance.DailyRecord) bool { return true }, nil
	case FilterPresent, FilterPartial, FilterAbsent:
		status := attendance.AttendanceStatus(filter)
		return func(r attendance.DailyRecord) bool { return r.Status == status }, nil
	case FilterWFO:
		return func(r attendance.DailyRecord) bool { return r.WorkedInOffice() }, nil
	case FilterWFH:
		return func(r attendance.DailyRecord) bool { return !r.WorkedInOffice() }, nil
	}
	return nil, fmt.Errorf("%w: %s", attendance.ErrUnknownStatus, filter)
}

// =============================================================================
// DAILY STATS
// =============================================================================

// DayStat is the office/home head-count of one day.
type DayStat struct {
	Date attendance.Date
	WFO  int
	WFH  int
}

// DailyStatsReport covers the seven days of a week.
type DailyStatsReport struct {
	Week *attendance.Week
	Days []DayStat
}

// DailyStats counts, per day of the week, employees who worked in the office
// and everyone else.
func (c *Composer) DailyStats(ctx context.Context, weekStart attendance.Date) (*DailyStatsReport, error) {
	week, err := c.resolveWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	rep := &DailyStatsReport{Week: week}
	if week == nil {
		return rep, nil
	}

	employees, err := c.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	records, err := c.Store.LoadDailyRecords(ctx, attendance.DailyQuery{From: week.Start, To: week.End})
	if err != nil {
		return nil, fmt.Errorf("load daily records: %w", err)
	}

	office := make(map[attendance.Date]int)
	for _, r := range records {
		if r.WorkedInOffice() {
			office[r.Date]++
		}
	}
	for _, d := range week.Days() {
		wfo := office[d]
		wfh := len(employees) - wfo
		if wfh < 0 {
			wfh = 0
		}
		rep.Days = append(rep.Days, DayStat{Date: d, WFO: wfo, WFH: wfh})
	}
	return rep, nil
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard is the headline view of the latest week.
type Dashboard struct {
	TotalEmployees    int
	Week              *attendance.Week
	AverageCompliance decimal.Decimal
	Distribution      StatusCounts
	TotalWFODays      int
	Alerts            int // employees in RED
}

// Dashboard summarizes the latest week with data.
func (c *Composer) Dashboard(ctx context.Context, policy attendance.PolicyConfig) (*Dashboard, error) {
	employees, err := c.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	fleet, err := c.Fleet(ctx, FleetQuery{}, policy)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalEmployees:    len(employees),
		Week:              fleet.Week,
		AverageCompliance: fleet.AverageCompliance,
		Distribution:      fleet.Distribution,
		TotalWFODays:      fleet.TotalWFODays,
		Alerts:            fleet.Distribution.Red,
	}, nil
}
