/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer layers (ingest, report, api) wrap or classify these errors;
  they never invent parallel sentinels for the same condition.

ERROR CATEGORIES:
  1. Row errors - A single ingestion row is unusable (skipped, counted)
  2. Anomalies - Implausible punch spans (record kept, flagged)
  3. Config errors - Policy rejected before it is written
  4. Lookup errors - Unknown employee, bad report parameters

USAGE:
    if errors.Is(err, attendance.ErrConfigInvalid) {
        // prior policy stays active
    }

SEE ALSO:
  - daily.go: produces RowError
  - reconciler.go: produces Anomaly
  - policy.go: produces ConfigInvalidError
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIngestionRow marks a row that was skipped during ingestion.
	// The batch continues; the row is counted as rejected.
	ErrIngestionRow = errors.New("ingestion row rejected")

	// ErrRowBadDate is a row whose date could not be resolved.
	ErrRowBadDate = errors.New("unresolvable date")

	// ErrRowMissingEmployee is a row without an employee code.
	ErrRowMissingEmployee = errors.New("missing employee code")

	// ErrAnomalousPunchSpan marks a first-in/last-out span longer than the
	// configured maximum shift.
	ErrAnomalousPunchSpan = errors.New("anomalous punch span")

	// ErrConfigInvalid is returned when a policy write violates its invariants.
	ErrConfigInvalid = errors.New("invalid policy configuration")

	// ErrEmployeeNotFound is returned when a report names an unknown employee.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrNoValidRows is returned when a batch contains nothing to ingest.
	ErrNoValidRows = errors.New("no valid attendance rows")

	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid date range: end before start")

	// ErrUnknownSortColumn is returned for a fleet sort on an unknown column.
	ErrUnknownSortColumn = errors.New("unknown sort column")

	// ErrUnknownStatus is returned for an unrecognised status filter.
	ErrUnknownStatus = errors.New("unknown status filter")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RowError describes why a single ingestion row was skipped.
type RowError struct {
	Line         int // source row number, 0 if unknown
	EmployeeCode string
	Kind         error // ErrRowBadDate, ErrRowMissingEmployee, ...
	Detail       string
}

func (e *RowError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		return fmt.Sprintf("row %d: %s", e.Line, msg)
	}
	return msg
}

func (e *RowError) Unwrap() []error {
	return []error{ErrIngestionRow, e.Kind}
}

// ParseRowErrorKind maps a stored kind message back to its sentinel.
// Unknown messages become plain errors.
func ParseRowErrorKind(msg string) error {
	for _, k := range []error{ErrRowBadDate, ErrRowMissingEmployee} {
		if k.Error() == msg {
			return k
		}
	}
	return errors.New(msg)
}

// ConfigInvalidError names the policy field that broke an invariant.
type ConfigInvalidError struct {
	Field  string
	Reason string
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("invalid policy configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigInvalidError) Unwrap() error {
	return ErrConfigInvalid
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfigInvalid) ||
		errors.Is(err, ErrNoValidRows) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownSortColumn) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrIngestionRow)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
