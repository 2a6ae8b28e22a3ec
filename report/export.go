package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TABLE - Flat export shape shared by CSV and XLSX
// =============================================================================

// Table is a flat export. Preamble rows (title, summary block) are written
// above the header row.
type Table struct {
	Name     string // sheet name and download file stem
	Preamble [][]string
	Headers  []string
	Rows     [][]string
}

// WriteCSV writes the table as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	for _, row := range t.Preamble {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes the table as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(t.Name)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	row := 1
	put := func(values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		row++
		return f.SetSheetRow(sheet, cell, &cells)
	}

	for _, r := range t.Preamble {
		if err := put(r); err != nil {
			return err
		}
	}
	headerRow := row
	if err := put(t.Headers); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := put(r); err != nil {
			return err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil && len(t.Headers) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, headerRow)
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), headerRow)
		_ = f.SetCellStyle(sheet, first, last, style)
	}

	return f.Write(w)
}

// Excel sheet names are limited to 31 characters and a few forbidden runes.
func sheetName(name string) string {
	if name == "" {
		return "Report"
	}
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatMinutes renders minutes as "Xh Ym".
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0h 0m"
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatPercent rounds for display; classification never uses this value.
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2)
}

func formatClock(c *attendance.ClockTime) string {
	if c == nil {
		return "-"
	}
	return c.String()
}

// FormatSessions renders sessions as "09:00-12:00, 13:00-18:00".
func FormatSessions(sessions []attendance.Session) string {
	parts := make([]string, 0, len(sessions))
	for _, s := range sessions {
		parts = append(parts, formatClock(s.In)+"-"+formatClock(s.Out))
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// =============================================================================
// REPORT TABLES
// =============================================================================

// FleetHeaders is the column order of the all-employees report.
var FleetHeaders = []string{
	"Employee Code", "Employee Name", "Department", "Total Office Hours",
	"WFO Days", "Required WFO Days", "Expected Hours", "Compliance %", "Status",
}

// FleetTable flattens a fleet report.
func FleetTable(rep *FleetReport) Table {
	t := Table{Name: "All Employees", Headers: FleetHeaders}
	if rep.Week != nil {
		t.Name = "All Employees " + rep.Week.Start.String()
	}
	for _, r := range rep.Rows {
		t.Rows = append(t.Rows, []string{
			r.Employee.Code,
			r.Employee.Name,
			r.Employee.Department,
			FormatMinutes(r.Summary.TotalMinutes),
			fmt.Sprint(r.Summary.WFODays),
			fmt.Sprint(r.Summary.RequiredWFODays),
			FormatMinutes(r.Summary.ExpectedMinutes),
			FormatPercent(r.Summary.CompliancePercentage),
			string(r.Summary.Status),
		})
	}
	return t
}

// ComplianceHeaders is the column order of the WFO compliance report.
var ComplianceHeaders = []string{
	"Employee Code", "Employee Name", "WFO Days", "Actual Hours",
	"Expected Hours", "Compliance %", "Status", "Compliant",
}

// ComplianceTable flattens a fleet report into the WFO compliance view.
func ComplianceTable(rep *FleetReport) Table {
	t := Table{Name: "WFO Compliance", Headers: ComplianceHeaders}
	if rep.Week != nil {
		t.Name = "WFO Compliance " + rep.Week.Start.String()
		t.Preamble = [][]string{
			{"Week", rep.Week.Label()},
			{"Compliant", fmt.Sprint(rep.Compliant), "Non-compliant", fmt.Sprint(rep.NonCompliant)},
			{},
		}
	}
	for _, r := range rep.Rows {
		t.Rows = append(t.Rows, []string{
			r.Employee.Code,
			r.Employee.Name,
			fmt.Sprint(r.Summary.WFODays),
			FormatMinutes(r.Summary.TotalMinutes),
			FormatMinutes(r.Summary.ExpectedMinutes),
			FormatPercent(r.Summary.CompliancePercentage),
			string(r.Summary.Status),
			yesNo(r.Compliant),
		})
	}
	return t
}

// IndividualHeaders is the column order of the daily section of an
// individual report.
var IndividualHeaders = []string{
	"Date", "Day", "First In", "Last Out", "Time Logs", "Total Hours", "Status",
}

// IndividualTable flattens an individual report: an employee and summary
// block, then one row per day.
func IndividualTable(rep *IndividualReport) Table {
	t := Table{
		Name:    "Employee " + rep.Employee.Code,
		Headers: IndividualHeaders,
		Preamble: [][]string{
			{"Employee Code", rep.Employee.Code},
			{"Employee Name", rep.Employee.Name},
			{"Department", rep.Employee.Department},
			{},
			{"Total Office Hours", FormatMinutes(rep.Summary.TotalMinutes)},
			{"Total WFO Days", fmt.Sprint(rep.Summary.WFODays)},
			{"Average Compliance", FormatPercent(rep.Summary.AverageCompliance) + "%"},
			{"Overall Status", string(rep.Summary.OverallStatus)},
			{},
		},
	}
	for _, d := range rep.Days {
		t.Rows = append(t.Rows, []string{
			d.Date.String(),
			d.Date.Weekday().String(),
			formatClock(d.FirstIn),
			formatClock(d.LastOut),
			FormatSessions(d.Sessions),
			FormatMinutes(d.TotalMinutes),
			string(d.Status),
		})
	}
	return t
}
