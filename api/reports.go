package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// Dashboard returns the headline numbers of the latest week.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	policy, ok := h.policy(w, r, "Dashboard")
	if !ok {
		return
	}
	dash, err := h.Composer.Dashboard(r.Context(), policy)
	if err != nil {
		h.fail(w, "Dashboard", "Failed to build dashboard", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		TotalEmployees:    dash.TotalEmployees,
		Week:              toWeekDTO(dash.Week),
		AverageCompliance: round2(dash.AverageCompliance),
		Distribution:      dash.Distribution,
		TotalWFODays:      dash.TotalWFODays,
		Alerts:            dash.Alerts,
	})
}

// DashboardStats returns office/home head-counts per day of a week.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	weekStart, err := dateParam(r, "week_start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start", err)
		return
	}
	stats, err := h.Composer.DailyStats(r.Context(), weekStart)
	if err != nil {
		h.fail(w, "DashboardStats", "Failed to build daily stats", err, nil)
		return
	}

	dto := DailyStatsDTO{Week: toWeekDTO(stats.Week), Days: make([]DayStatDTO, 0, len(stats.Days))}
	for _, d := range stats.Days {
		dto.Days = append(dto.Days, DayStatDTO{
			Date: d.Date.String(),
			Day:  d.Date.Weekday().String(),
			WFO:  d.WFO,
			WFH:  d.WFH,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// DailyDetails lists every employee for one day, optionally filtered.
func (h *Handler) DailyDetails(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date")
	if err != nil || day.IsZero() {
		writeError(w, http.StatusBadRequest, "Query parameter 'date' (YYYY-MM-DD) is required", err)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))

	rows, err := h.Composer.DailyDetail(r.Context(), day, status)
	if err != nil {
		h.fail(w, "DailyDetails", "Failed to load daily details", err, nil)
		return
	}

	dto := DailyDetailDTO{Date: day.String(), Status: status, Count: len(rows), Records: make([]DailyRecordDTO, 0, len(rows))}
	for _, row := range rows {
		rec := toDailyRecordDTO(row.Record)
		rec.EmployeeName = row.Employee.Name
		dto.Records = append(dto.Records, rec)
	}
	writeJSON(w, http.StatusOK, dto)
}

// Weeks lists the report windows that have data, newest first.
func (h *Handler) Weeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.Composer.Weeks(r.Context())
	if err != nil {
		h.fail(w, "Weeks", "Failed to list weeks", err, nil)
		return
	}
	dtos := make([]WeekDTO, 0, len(weeks))
	for i := range weeks {
		dtos = append(dtos, *toWeekDTO(&weeks[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AllEmployees returns the fleet report.
func (h *Handler) AllEmployees(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fleet(w, r, "AllEmployees")
	if !ok {
		return
	}
	dto := FleetDTO{
		Week:              toWeekDTO(rep.Week),
		Employees:         make([]WeeklySummaryDTO, 0, len(rep.Rows)),
		Distribution:      rep.Distribution,
		AverageCompliance: round2(rep.AverageCompliance),
		TotalWFODays:      rep.TotalWFODays,
		TotalEmployees:    rep.TotalEmployees,
	}
	for _, row := range rep.Rows {
		dto.Employees = append(dto.Employees, toFleetRowDTO(row))
	}
	writeJSON(w, http.StatusOK, dto)
}

// WFOCompliance returns the fleet report as a compliant / non-compliant split.
func (h *Handler) WFOCompliance(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fleet(w, r, "WFOCompliance")
	if !ok {
		return
	}
	dto := ComplianceDTO{
		Week:           toWeekDTO(rep.Week),
		Employees:      make([]WeeklySummaryDTO, 0, len(rep.Rows)),
		TotalEmployees: rep.TotalEmployees,
		Compliant:      rep.Compliant,
		NonCompliant:   rep.NonCompliant,
		ComplianceRate: round2(rep.ComplianceRate()),
	}
	for _, row := range rep.Rows {
		dto.Employees = append(dto.Employees, toFleetRowDTO(row))
	}
	writeJSON(w, http.StatusOK, dto)
}

// Individual returns one employee's report over start_date..end_date.
func (h *Handler) Individual(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.individual(w, r, "Individual")
	if !ok {
		return
	}

	dto := IndividualDTO{
		Employee:          toEmployeeDTO(rep.Employee),
		TotalMinutes:      rep.Summary.TotalMinutes,
		TotalHours:        hours(rep.Summary.TotalMinutes),
		WFODays:           rep.Summary.WFODays,
		AverageCompliance: round2(rep.Summary.AverageCompliance),
		OverallStatus:     string(rep.Summary.OverallStatus),
		Days:              make([]DailyRecordDTO, 0, len(rep.Days)),
		Weeks:             make([]WeeklySummaryDTO, 0, len(rep.Weeks)),
	}
	if !rep.Range.From.IsZero() {
		dto.StartDate = rep.Range.From.String()
	}
	if !rep.Range.To.IsZero() {
		dto.EndDate = rep.Range.To.String()
	}
	for _, d := range rep.Days {
		rec := toDailyRecordDTO(d.DailyRecord)
		pct := round2(d.Compliance)
		rec.Compliance = &pct
		rec.ComplianceStatus = string(d.ComplianceStatus)
		dto.Days = append(dto.Days, rec)
	}
	for _, s := range rep.Weeks {
		dto.Weeks = append(dto.Weeks, toWeeklySummaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// EXPORTS
// =============================================================================

// ExportAllEmployees downloads the fleet report.
func (h *Handler) ExportAllEmployees(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fleet(w, r, "ExportAllEmployees")
	if !ok {
		return
	}
	h.export(w, r, "all_employees_"+weekSuffix(rep.Week), report.FleetTable(rep))
}

// ExportWFOCompliance downloads the WFO compliance report.
func (h *Handler) ExportWFOCompliance(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fleet(w, r, "ExportWFOCompliance")
	if !ok {
		return
	}
	h.export(w, r, "wfo_compliance_"+weekSuffix(rep.Week), report.ComplianceTable(rep))
}

// ExportIndividual downloads one employee's report.
func (h *Handler) ExportIndividual(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.individual(w, r, "ExportIndividual")
	if !ok {
		return
	}
	h.export(w, r, "attendance_"+rep.Employee.Code, report.IndividualTable(rep))
}

// export writes t as CSV or XLSX depending on the format parameter.
func (h *Handler) export(w http.ResponseWriter, r *http.Request, basename string, t report.Table) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "xlsx"
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = report.WriteCSV(&buf, t)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = report.WriteXLSX(&buf, t)
	default:
		writeError(w, http.StatusBadRequest, "Invalid format. Use csv or xlsx", nil)
		return
	}
	if err != nil {
		h.fail(w, "export", "Failed to write export", err, basename)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", basename+"."+format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func weekSuffix(week *attendance.Week) string {
	if week == nil {
		return "empty"
	}
	return week.Start.Format("20060102")
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) policy(w http.ResponseWriter, r *http.Request, funcName string) (attendance.PolicyConfig, bool) {
	policy, err := h.Store.LoadPolicy(r.Context())
	if err != nil {
		h.fail(w, funcName, "Failed to load policy", err, nil)
		return policy, false
	}
	return policy, true
}

// fleet parses the fleet query parameters and builds the report.
func (h *Handler) fleet(w http.ResponseWriter, r *http.Request, funcName string) (*report.FleetReport, bool) {
	weekStart, err := dateParam(r, "week_start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start", err)
		return nil, false
	}

	q := report.FleetQuery{
		WeekStart: weekStart,
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}
	if s := strings.TrimSpace(r.URL.Query().Get("status_filter")); s != "" {
		if q.Status, err = attendance.ParseComplianceStatus(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status_filter. Use RED, AMBER or GREEN", err)
			return nil, false
		}
	}

	policy, ok := h.policy(w, r, funcName)
	if !ok {
		return nil, false
	}
	rep, err := h.Composer.Fleet(r.Context(), q, policy)
	if err != nil {
		h.fail(w, funcName, "Failed to build report", err, nil)
		return nil, false
	}
	return rep, true
}

// individual parses the individual report parameters and builds the report.
func (h *Handler) individual(w http.ResponseWriter, r *http.Request, funcName string) (*report.IndividualReport, bool) {
	code := chi.URLParam(r, "code")

	var rng attendance.DateRange
	var err error
	if rng.From, err = dateParam(r, "start_date"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return nil, false
	}
	if rng.To, err = dateParam(r, "end_date"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return nil, false
	}

	policy, ok := h.policy(w, r, funcName)
	if !ok {
		return nil, false
	}
	rep, err := h.Composer.Individual(r.Context(), code, rng, policy)
	if err != nil {
		h.fail(w, funcName, "Failed to build report", err, nil)
		return nil, false
	}
	return rep, true
}
