package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// FleetQuery selects and orders the fleet report.
type FleetQuery struct {
	WeekStart attendance.Date // zero = latest week with data
	SortBy    string          // see sortColumns; default "name"
	SortOrder string          // "asc" (default) or "desc"
	Status    attendance.ComplianceStatus
}

// FleetRow is one employee's week.
type FleetRow struct {
	Employee  attendance.Employee
	Summary   attendance.WeeklySummary
	Compliant bool // meets the red threshold
}

// FleetReport is the all-employees view of one week.
type FleetReport struct {
	Week              *attendance.Week
	Rows              []FleetRow
	Distribution      StatusCounts
	AverageCompliance decimal.Decimal
	TotalWFODays      int
	Compliant         int
	NonCompliant      int
	TotalEmployees    int
}

// ComplianceRate is the share of employees meeting the red threshold, in percent.
func (r *FleetReport) ComplianceRate() decimal.Decimal {
	return attendance.Compliance(r.Compliant, r.TotalEmployees)
}

type compareFunc func(a, b FleetRow) int

var sortColumns = map[string]compareFunc{
	"code":       func(a, b FleetRow) int { return strings.Compare(a.Employee.Code, b.Employee.Code) },
	"name":       func(a, b FleetRow) int { return cmpFold(a.Employee.Name, b.Employee.Name) },
	"department": func(a, b FleetRow) int { return cmpFold(a.Employee.Department, b.Employee.Department) },
	"hours":      func(a, b FleetRow) int { return cmpInt(a.Summary.TotalMinutes, b.Summary.TotalMinutes) },
	"wfo_days":   func(a, b FleetRow) int { return cmpInt(a.Summary.WFODays, b.Summary.WFODays) },
	"expected":   func(a, b FleetRow) int { return cmpInt(a.Summary.ExpectedMinutes, b.Summary.ExpectedMinutes) },
	"compliance": func(a, b FleetRow) int { return a.Summary.CompliancePercentage.Cmp(b.Summary.CompliancePercentage) },
	"status":     func(a, b FleetRow) int { return cmpInt(a.Summary.Status.Rank(), b.Summary.Status.Rank()) },
}

var sortAliases = map[string]string{
	"employee_code":         "code",
	"employee_name":         "name",
	"total_office_minutes":  "hours",
	"total_minutes":         "hours",
	"expected_minutes":      "expected",
	"compliance_percentage": "compliance",
}

// SortColumns lists the accepted sort keys.
func SortColumns() []string {
	cols := make([]string, 0, len(sortColumns))
	for k := range sortColumns {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func cmpFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Fleet reports on every known employee for one week. Employees without
// records get a 0%, RED row. The histogram, average and compliant counts
// cover all employees; the status filter only narrows Rows.
func (c *Composer) Fleet(ctx context.Context, q FleetQuery, policy attendance.PolicyConfig) (*FleetReport, error) {
	cmp, desc, err := parseSort(q.SortBy, q.SortOrder)
	if err != nil {
		return nil, err
	}
	if q.Status != "" && q.Status.Rank() < 0 {
		return nil, fmt.Errorf("%w: %s", attendance.ErrUnknownStatus, q.Status)
	}

	week, err := c.resolveWeek(ctx, q.WeekStart)
	if err != nil {
		return nil, err
	}
	rep := &FleetReport{Week: week}
	if week == nil {
		return rep, nil
	}

	employees, err := c.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	byCode, err := c.recordsByEmployee(ctx, week.Range())
	if err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, emp := range employees {
		s := attendance.SummarizeWeek(emp.Code, *week, byCode[emp.Code], policy)
		row := FleetRow{Employee: emp, Summary: s, Compliant: policy.IsCompliant(s.CompliancePercentage)}

		rep.TotalEmployees++
		rep.Distribution.add(s.Status)
		rep.TotalWFODays += s.WFODays
		sum = sum.Add(s.CompliancePercentage)
		if row.Compliant {
			rep.Compliant++
		} else {
			rep.NonCompliant++
		}

		if q.Status == "" || s.Status == q.Status {
			rep.Rows = append(rep.Rows, row)
		}
	}
	rep.AverageCompliance = average(sum, rep.TotalEmployees)

	sort.SliceStable(rep.Rows, func(i, j int) bool {
		a, b := rep.Rows[i], rep.Rows[j]
		d := cmp(a, b)
		if desc {
			d = -d
		}
		if d != 0 {
			return d < 0
		}
		return a.Employee.Code < b.Employee.Code
	})
	return rep, nil
}

func parseSort(by, order string) (compareFunc, bool, error) {
	by = strings.ToLower(strings.TrimSpace(by))
	if by == "" {
		by = "name"
	}
	if alias, ok := sortAliases[by]; ok {
		by = alias
	}
	cmp, ok := sortColumns[by]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s (one of %s)", attendance.ErrUnknownSortColumn, by, strings.Join(SortColumns(), ", "))
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc":
		return cmp, false, nil
	case "desc":
		return cmp, true, nil
	}
	return nil, false, fmt.Errorf("%w: sort order %q", attendance.ErrUnknownSortColumn, order)
}
