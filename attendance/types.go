/*
types.go - Core value types of the attendance engine

PURPOSE:
  Defines what flows through the engine: raw punches in, daily records in
  the middle, weekly summaries out. Everything here is a plain value; the
  behaviour lives in reconciler.go, daily.go, weekly.go and policy.go.

KEY CONCEPTS:
  - PunchRow: one parsed line of a clock-device export (IN and/or OUT)
  - PunchEvent: a single clock event, derived from a PunchRow
  - DailyRecord: one (employee, date) fact, always replaced as a whole
  - WeeklySummary: derived on demand, never stored

SEE ALSO:
  - reconciler.go: PunchEvent -> DailyRecord
  - weekly.go: DailyRecord -> WeeklySummary
*/
package attendance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PUNCHES
// =============================================================================

// Direction labels a clock event. Devices that don't label events produce
// DirectionUnknown.
type Direction string

const (
	DirectionIn      Direction = "IN"
	DirectionOut     Direction = "OUT"
	DirectionUnknown Direction = "UNKNOWN"
)

// PunchEvent is a single biometric clock event.
type PunchEvent struct {
	EmployeeCode string
	EmployeeName string
	Date         Date
	Clock        ClockTime
	Direction    Direction
}

// PunchRow is one ingestion row. A zero Date means the source date could not
// be resolved; such rows are rejected by AggregateDaily.
type PunchRow struct {
	EmployeeCode string
	EmployeeName string
	Date         Date
	InTime       *ClockTime
	OutTime      *ClockTime

	// Device metadata, persisted with the raw log only.
	DeviceTotal     *ClockTime
	Shift           string
	LateMinutes     int
	OvertimeMinutes int
	Remark          string

	Line int // source row number
}

// Events expands the row into its clock events.
func (r PunchRow) Events() []PunchEvent {
	var events []PunchEvent
	if r.InTime != nil {
		events = append(events, PunchEvent{
			EmployeeCode: r.EmployeeCode,
			EmployeeName: r.EmployeeName,
			Date:         r.Date,
			Clock:        *r.InTime,
			Direction:    DirectionIn,
		})
	}
	if r.OutTime != nil {
		events = append(events, PunchEvent{
			EmployeeCode: r.EmployeeCode,
			EmployeeName: r.EmployeeName,
			Date:         r.Date,
			Clock:        *r.OutTime,
			Direction:    DirectionOut,
		})
	}
	return events
}

// =============================================================================
// DAILY
// =============================================================================

// AttendanceStatus is the per-day presence classification.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusPartial AttendanceStatus = "PARTIAL"
	StatusAbsent  AttendanceStatus = "ABSENT"
)

// Session is an observed IN/OUT pair. Either side may be missing.
type Session struct {
	In      *ClockTime `json:"in,omitempty"`
	Out     *ClockTime `json:"out,omitempty"`
	Minutes int        `json:"minutes"`
}

// Anomaly flags a daily record whose raw span exceeded the maximum shift.
// The record's TotalMinutes holds the clamped value.
type Anomaly struct {
	EmployeeCode string `json:"employee_code"`
	Date         Date   `json:"-"`
	RawMinutes   int    `json:"raw_minutes"`
	ClampedTo    int    `json:"clamped_to"`
}

func (a *Anomaly) Error() string {
	return ErrAnomalousPunchSpan.Error() + ": " + a.EmployeeCode + " on " + a.Date.String()
}

func (a *Anomaly) Unwrap() error { return ErrAnomalousPunchSpan }

// DailyRecord is the normalized fact for one employee on one day.
type DailyRecord struct {
	EmployeeCode string
	Date         Date
	FirstIn      *ClockTime
	LastOut      *ClockTime
	TotalMinutes int
	Status       AttendanceStatus
	PunchCount   int
	Sessions     []Session
	Anomaly      *Anomaly
}

// AbsentRecord is the record synthesized for a day without any punches.
func AbsentRecord(code string, date Date) DailyRecord {
	return DailyRecord{EmployeeCode: code, Date: date, Status: StatusAbsent}
}

// WorkedInOffice reports whether the day counts as a work-from-office day.
func (r DailyRecord) WorkedInOffice() bool {
	return r.TotalMinutes > 0 && r.Status != StatusAbsent
}

// =============================================================================
// WEEKLY
// =============================================================================

// ComplianceStatus is the traffic-light classification of a percentage.
type ComplianceStatus string

const (
	ComplianceRed   ComplianceStatus = "RED"
	ComplianceAmber ComplianceStatus = "AMBER"
	ComplianceGreen ComplianceStatus = "GREEN"
)

// Rank orders statuses from worst to best (RED < AMBER < GREEN).
func (s ComplianceStatus) Rank() int {
	switch s {
	case ComplianceRed:
		return 0
	case ComplianceAmber:
		return 1
	case ComplianceGreen:
		return 2
	}
	return -1
}

// ParseComplianceStatus accepts any casing of RED/AMBER/GREEN.
func ParseComplianceStatus(s string) (ComplianceStatus, error) {
	switch ComplianceStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case ComplianceRed:
		return ComplianceRed, nil
	case ComplianceAmber:
		return ComplianceAmber, nil
	case ComplianceGreen:
		return ComplianceGreen, nil
	}
	return "", ErrUnknownStatus
}

// WeeklySummary is a derived per-employee week. CompliancePercentage is kept
// unrounded; round only for display.
type WeeklySummary struct {
	EmployeeCode         string
	Week                 Week
	WFODays              int
	RequiredWFODays      int
	TotalMinutes         int
	ExpectedMinutes      int
	CompliancePercentage decimal.Decimal
	Status               ComplianceStatus
}

// =============================================================================
// EMPLOYEES & INGESTION
// =============================================================================

// Employee is a person seen in punch data.
type Employee struct {
	Code       string
	Name       string
	Department string
}

// IngestionRun is one batch recorded in the ingestion log.
type IngestionRun struct {
	ID          string
	Source      string
	Status      string // "completed" | "failed"
	Result      IngestResult
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// IngestResult reports what a batch did.
type IngestResult struct {
	BatchID                string
	RowsRead               int
	RecordsParsed          int
	RowsRejected           int
	EmployeesSeen          int
	EmployeesCreated       int
	DailySummariesCreated  int
	DailySummariesUpdated  int
	WeeklySummariesCreated int
	Anomalies              []Anomaly
	Errors                 []RowError
}
