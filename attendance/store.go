/*
store.go - Persistence interface for attendance data

PURPOSE:
  Defines the interface between the engine and the database. The engine
  itself is pure; only the Ingestor (writes) and the Report Composer (reads)
  touch a Store.

KEY INTERFACES:
  Store:       Employees, raw punch log, daily records, ingestion runs
  TxStore:     Atomic batch writes (one ingestion = one transaction)
  PolicyStore: The active hybrid-work policy

REPLACE, NOT MERGE:
  ReplaceDailyRecords overwrites each (employee, date) record as a whole.
  Re-ingesting the same file therefore yields identical records, and a later
  batch for an overlapping key is the last writer.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - attendance/store/memory.go: In-memory for testing

SEE ALSO:
  - ingestor.go: the only writer
  - report/composer.go: the main reader
*/
package attendance

import "context"

// =============================================================================
// STORE
// =============================================================================

// DailyQuery selects daily records. Empty EmployeeCode means all employees;
// zero dates leave that end of the range open.
type DailyQuery struct {
	EmployeeCode string
	From         Date
	To           Date
}

// Store handles persistence of attendance data.
type Store interface {
	// UpsertEmployees inserts new employees and fills in empty names of
	// existing ones. Returns how many were newly created.
	UpsertEmployees(ctx context.Context, employees []Employee) (int, error)

	// GetEmployee returns nil, nil when the code is unknown.
	GetEmployee(ctx context.Context, code string) (*Employee, error)

	// ListEmployees returns every employee ordered by code.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// UpdateEmployee overwrites name and department. ErrEmployeeNotFound if missing.
	UpdateEmployee(ctx context.Context, emp Employee) error

	// AppendPunchLogs stores the raw rows of a batch.
	AppendPunchLogs(ctx context.Context, batchID string, rows []PunchRow) error

	// ReplaceDailyRecords writes whole records keyed by (employee, date).
	// Returns how many keys were created and how many replaced.
	ReplaceDailyRecords(ctx context.Context, records []DailyRecord) (created, updated int, err error)

	// LoadDailyRecords returns matching records ordered by code, then date.
	LoadDailyRecords(ctx context.Context, q DailyQuery) ([]DailyRecord, error)

	// RecordDates returns the distinct dates that have records, ascending.
	RecordDates(ctx context.Context) ([]Date, error)

	// SaveIngestionRun appends to the ingestion log.
	SaveIngestionRun(ctx context.Context, run IngestionRun) error

	// ListIngestionRuns returns the newest runs first. limit <= 0 means all.
	ListIngestionRuns(ctx context.Context, limit int) ([]IngestionRun, error)

	// Reset removes all attendance data. The policy is kept.
	Reset(ctx context.Context) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// POLICY STORE
// =============================================================================

// PolicyStore persists the active policy.
type PolicyStore interface {
	// LoadPolicy returns DefaultPolicy() when nothing has been saved.
	LoadPolicy(ctx context.Context) (PolicyConfig, error)

	// SavePolicy validates and then replaces the active policy. On
	// ErrConfigInvalid nothing is written.
	SavePolicy(ctx context.Context, policy PolicyConfig) error
}
