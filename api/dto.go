/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Percentages and hours are rounded to 2 decimals here, for display only.
  Classification has already happened on the exact values.

VALIDATION:
  Request types carry go-playground/validator tags, checked in handlers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	Code       string `json:"employee_code"`
	Name       string `json:"employee_name"`
	Department string `json:"department"`
}

// EmployeeListDTO is a page of employees.
type EmployeeListDTO struct {
	Employees []EmployeeDTO `json:"employees"`
	Total     int           `json:"total"`
	Skip      int           `json:"skip"`
	Limit     int           `json:"limit"`
}

// EmployeeDetailDTO is an employee with attendance stats.
type EmployeeDetailDTO struct {
	EmployeeDTO
	TotalDays        int     `json:"total_days"`
	WFODays          int     `json:"wfo_days"`
	TotalOfficeHours float64 `json:"total_office_hours"`
	FirstRecord      string  `json:"first_record,omitempty"`
	LastRecord       string  `json:"last_record,omitempty"`
}

// EmployeeQuery holds list parameters.
type EmployeeQuery struct {
	Search string `validate:"max=100"`
	Skip   int    `validate:"gte=0"`
	Limit  int    `validate:"gte=1,lte=1000"`
}

// UpdateEmployeeRequest is the body of PUT /api/employees/{code}.
type UpdateEmployeeRequest struct {
	Name       string `json:"employee_name" validate:"required,max=200"`
	Department string `json:"department" validate:"max=200"`
}

// =============================================================================
// UPLOADS
// =============================================================================

// AnomalyDTO is a clamped punch span.
type AnomalyDTO struct {
	EmployeeCode string `json:"employee_code"`
	Date         string `json:"date"`
	RawMinutes   int    `json:"raw_minutes"`
	ClampedTo    int    `json:"clamped_to"`
}

// UploadResultDTO reports what an ingested file did.
type UploadResultDTO struct {
	Message                string       `json:"message"`
	BatchID                string       `json:"batch_id,omitempty"`
	Source                 string       `json:"source"`
	RowsRead               int          `json:"rows_read"`
	RecordsParsed          int          `json:"records_parsed"`
	RowsRejected           int          `json:"rows_rejected"`
	EmployeesSeen          int          `json:"employees_created_or_seen"`
	EmployeesCreated       int          `json:"employees_created"`
	DailySummariesCreated  int          `json:"daily_summaries_created"`
	DailySummariesUpdated  int          `json:"daily_summaries_updated"`
	WeeklySummariesCreated int          `json:"weekly_summaries_created"`
	Anomalies              []AnomalyDTO `json:"anomalies"`
	Errors                 []string     `json:"errors"`
	Warnings               []string     `json:"warnings,omitempty"`
}

// IngestionRunDTO is one entry of the ingestion log.
type IngestionRunDTO struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
	Result      UploadResultDTO `json:"result"`
}

// =============================================================================
// REPORTS
// =============================================================================

// WeekDTO is a report window.
type WeekDTO struct {
	Start string `json:"week_start"`
	End   string `json:"week_end"`
	Label string `json:"label"`
}

// SessionDTO is one IN/OUT pair.
type SessionDTO struct {
	In      string `json:"in,omitempty"`
	Out     string `json:"out,omitempty"`
	Minutes int    `json:"minutes"`
}

// DailyRecordDTO is one employee-day.
type DailyRecordDTO struct {
	EmployeeCode string       `json:"employee_code"`
	EmployeeName string       `json:"employee_name,omitempty"`
	Date         string       `json:"date"`
	Day          string       `json:"day"`
	FirstIn      string       `json:"first_in,omitempty"`
	LastOut      string       `json:"last_out,omitempty"`
	TotalMinutes int          `json:"total_minutes"`
	TotalHours   float64      `json:"total_hours"`
	Status       string       `json:"status"`
	PunchCount   int          `json:"punch_count"`
	Sessions     []SessionDTO `json:"sessions"`
	Anomaly      *AnomalyDTO  `json:"anomaly,omitempty"`

	// Individual report only.
	Compliance       *float64 `json:"compliance_percentage,omitempty"`
	ComplianceStatus string   `json:"compliance_status,omitempty"`
}

// WeeklySummaryDTO is one employee-week.
type WeeklySummaryDTO struct {
	EmployeeCode         string  `json:"employee_code"`
	EmployeeName         string  `json:"employee_name,omitempty"`
	Department           string  `json:"department,omitempty"`
	WeekStart            string  `json:"week_start"`
	WeekEnd              string  `json:"week_end"`
	WFODays              int     `json:"wfo_days"`
	RequiredWFODays      int     `json:"required_wfo_days"`
	TotalMinutes         int     `json:"total_office_minutes"`
	TotalHours           float64 `json:"total_office_hours"`
	ExpectedMinutes      int     `json:"expected_minutes"`
	ExpectedHours        float64 `json:"expected_hours"`
	CompliancePercentage float64 `json:"compliance_percentage"`
	Status               string  `json:"status"`
	Compliant            *bool   `json:"is_compliant,omitempty"`
}

// FleetDTO is the all-employees report.
type FleetDTO struct {
	Week              *WeekDTO            `json:"week"`
	Employees         []WeeklySummaryDTO  `json:"employees"`
	Distribution      report.StatusCounts `json:"status_distribution"`
	AverageCompliance float64             `json:"average_compliance"`
	TotalWFODays      int                 `json:"total_wfo_days"`
	TotalEmployees    int                 `json:"total_employees"`
}

// ComplianceDTO is the WFO compliance report.
type ComplianceDTO struct {
	Week           *WeekDTO           `json:"week"`
	Employees      []WeeklySummaryDTO `json:"employees"`
	TotalEmployees int                `json:"total_employees"`
	Compliant      int                `json:"compliant_count"`
	NonCompliant   int                `json:"non_compliant_count"`
	ComplianceRate float64            `json:"compliance_rate"`
}

// IndividualDTO is the per-employee report.
type IndividualDTO struct {
	Employee          EmployeeDTO        `json:"employee"`
	StartDate         string             `json:"start_date,omitempty"`
	EndDate           string             `json:"end_date,omitempty"`
	TotalMinutes      int                `json:"total_office_minutes"`
	TotalHours        float64            `json:"total_office_hours"`
	WFODays           int                `json:"total_wfo_days"`
	AverageCompliance float64            `json:"average_compliance"`
	OverallStatus     string             `json:"overall_status"`
	Days              []DailyRecordDTO   `json:"daily_records"`
	Weeks             []WeeklySummaryDTO `json:"weekly_summaries"`
}

// DashboardDTO is the headline view.
type DashboardDTO struct {
	TotalEmployees    int                 `json:"total_employees"`
	Week              *WeekDTO            `json:"current_week"`
	AverageCompliance float64             `json:"average_compliance"`
	Distribution      report.StatusCounts `json:"status_distribution"`
	TotalWFODays      int                 `json:"total_wfo_days"`
	Alerts            int                 `json:"alerts_count"`
}

// DayStatDTO is one day of office/home head-count.
type DayStatDTO struct {
	Date string `json:"date"`
	Day  string `json:"day"`
	WFO  int    `json:"wfo"`
	WFH  int    `json:"wfh"`
}

// DailyStatsDTO covers a week of head-counts.
type DailyStatsDTO struct {
	Week *WeekDTO     `json:"week"`
	Days []DayStatDTO `json:"days"`
}

// DailyDetailDTO lists employees for one day.
type DailyDetailDTO struct {
	Date    string           `json:"date"`
	Status  string           `json:"status_filter,omitempty"`
	Count   int              `json:"count"`
	Records []DailyRecordDTO `json:"records"`
}

// =============================================================================
// SETTINGS & SCENARIOS
// =============================================================================

// SettingsDTO is the active policy with derived values.
type SettingsDTO struct {
	factory.PolicyJSON
	ExpectedWeeklyMinutes int                `json:"expected_weekly_minutes"`
	Thresholds            map[string]float64 `json:"thresholds"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
// Preset optionally names a policy preset to activate first.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	Preset     string `json:"preset,omitempty" validate:"omitempty,oneof=hybrid-3-2 office-first remote-first"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func hours(minutes int) float64 {
	return round2(decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)))
}

func toEmployeeDTO(e attendance.Employee) EmployeeDTO {
	return EmployeeDTO{Code: e.Code, Name: e.Name, Department: e.Department}
}

func toWeekDTO(w *attendance.Week) *WeekDTO {
	if w == nil {
		return nil
	}
	return &WeekDTO{Start: w.Start.String(), End: w.End.String(), Label: w.Label()}
}

func clockString(c *attendance.ClockTime) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func toAnomalyDTO(a attendance.Anomaly) AnomalyDTO {
	return AnomalyDTO{
		EmployeeCode: a.EmployeeCode,
		Date:         a.Date.String(),
		RawMinutes:   a.RawMinutes,
		ClampedTo:    a.ClampedTo,
	}
}

func toDailyRecordDTO(r attendance.DailyRecord) DailyRecordDTO {
	dto := DailyRecordDTO{
		EmployeeCode: r.EmployeeCode,
		Date:         r.Date.String(),
		Day:          r.Date.Weekday().String(),
		FirstIn:      clockString(r.FirstIn),
		LastOut:      clockString(r.LastOut),
		TotalMinutes: r.TotalMinutes,
		TotalHours:   hours(r.TotalMinutes),
		Status:       string(r.Status),
		PunchCount:   r.PunchCount,
		Sessions:     make([]SessionDTO, 0, len(r.Sessions)),
	}
	for _, s := range r.Sessions {
		dto.Sessions = append(dto.Sessions, SessionDTO{In: clockString(s.In), Out: clockString(s.Out), Minutes: s.Minutes})
	}
	if r.Anomaly != nil {
		a := toAnomalyDTO(*r.Anomaly)
		dto.Anomaly = &a
	}
	return dto
}

func toWeeklySummaryDTO(s attendance.WeeklySummary) WeeklySummaryDTO {
	return WeeklySummaryDTO{
		EmployeeCode:         s.EmployeeCode,
		WeekStart:            s.Week.Start.String(),
		WeekEnd:              s.Week.End.String(),
		WFODays:              s.WFODays,
		RequiredWFODays:      s.RequiredWFODays,
		TotalMinutes:         s.TotalMinutes,
		TotalHours:           hours(s.TotalMinutes),
		ExpectedMinutes:      s.ExpectedMinutes,
		ExpectedHours:        hours(s.ExpectedMinutes),
		CompliancePercentage: round2(s.CompliancePercentage),
		Status:               string(s.Status),
	}
}

func toFleetRowDTO(row report.FleetRow) WeeklySummaryDTO {
	dto := toWeeklySummaryDTO(row.Summary)
	dto.EmployeeName = row.Employee.Name
	dto.Department = row.Employee.Department
	compliant := row.Compliant
	dto.Compliant = &compliant
	return dto
}

func toUploadResultDTO(source string, res *attendance.IngestResult) UploadResultDTO {
	dto := UploadResultDTO{
		Message:                "File processed successfully",
		BatchID:                res.BatchID,
		Source:                 source,
		RowsRead:               res.RowsRead,
		RecordsParsed:          res.RecordsParsed,
		RowsRejected:           res.RowsRejected,
		EmployeesSeen:          res.EmployeesSeen,
		EmployeesCreated:       res.EmployeesCreated,
		DailySummariesCreated:  res.DailySummariesCreated,
		DailySummariesUpdated:  res.DailySummariesUpdated,
		WeeklySummariesCreated: res.WeeklySummariesCreated,
		Anomalies:              make([]AnomalyDTO, 0, len(res.Anomalies)),
		Errors:                 make([]string, 0, len(res.Errors)),
	}
	for _, a := range res.Anomalies {
		dto.Anomalies = append(dto.Anomalies, toAnomalyDTO(a))
	}
	for i := range res.Errors {
		dto.Errors = append(dto.Errors, res.Errors[i].Error())
	}
	return dto
}
