/*
Package sqlite provides a SQLite-backed implementation of the attendance storage interfaces.

PURPOSE:
  Implements attendance.TxStore and attendance.PolicyStore using SQLite.
  The same schema works on PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  attendance.Store:       Employees, punch log, daily records, ingestion log
  attendance.TxStore:     One ingestion batch = one SQL transaction
  attendance.PolicyStore: The active hybrid-work policy (versioned)

KEY TABLES:
  employees:        Employee master (code, name, department)
  punch_logs:       Raw rows of every accepted batch (append-only)
  daily_attendance: One row per (employee_code, date), replaced on re-ingest
  policies:         Single active policy row, version bumped on every save
  ingestion_runs:   Ingestion log with per-batch counts

INDEXES:
  - daily_attendance primary key (employee_code, date): upsert target
  - idx_daily_attendance_date: week and day reports (hot path)
  - idx_punch_logs_batch: batch lookups

CONCURRENCY:
  Uses sync.RWMutex around a single connection. A ":memory:" database lives
  on one connection, so the pool is capped at one.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ingestor := attendance.NewIngestor(store, logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - attendance/store.go: Interface definitions
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/attendance"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Raw punch rows (append-only)
	CREATE TABLE IF NOT EXISTS punch_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		line INTEGER NOT NULL DEFAULT 0,
		employee_code TEXT NOT NULL,
		employee_name TEXT,
		date TEXT NOT NULL,
		in_minutes INTEGER,
		out_minutes INTEGER,
		device_total_minutes INTEGER,
		shift TEXT,
		late_minutes INTEGER DEFAULT 0,
		overtime_minutes INTEGER DEFAULT 0,
		remark TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_punch_logs_batch
		ON punch_logs(batch_id);
	CREATE INDEX IF NOT EXISTS idx_punch_logs_employee_date
		ON punch_logs(employee_code, date);

	-- Daily attendance (one row per employee and day)
	CREATE TABLE IF NOT EXISTS daily_attendance (
		employee_code TEXT NOT NULL,
		date TEXT NOT NULL,
		first_in INTEGER,
		last_out INTEGER,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		punch_count INTEGER NOT NULL DEFAULT 0,
		sessions_json TEXT,
		anomaly_raw_minutes INTEGER,
		anomaly_clamped_to INTEGER,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_code, date)
	);

	CREATE INDEX IF NOT EXISTS idx_daily_attendance_date
		ON daily_attendance(date);

	-- Active policy
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Ingestion log
	CREATE TABLE IF NOT EXISTS ingestion_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		rows_read INTEGER DEFAULT 0,
		records_parsed INTEGER DEFAULT 0,
		rows_rejected INTEGER DEFAULT 0,
		employees_seen INTEGER DEFAULT 0,
		employees_created INTEGER DEFAULT 0,
		daily_created INTEGER DEFAULT 0,
		daily_updated INTEGER DEFAULT 0,
		weekly_created INTEGER DEFAULT 0,
		errors_json TEXT,
		anomalies_json TEXT,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_ingestion_runs_started
		ON ingestion_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// UpsertEmployees inserts new employees and fills in empty names.
func (s *Store) UpsertEmployees(ctx context.Context, employees []attendance.Employee) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertEmployees(ctx, s.db, employees)
}

func upsertEmployees(ctx context.Context, db querier, employees []attendance.Employee) (int, error) {
	query := `
		INSERT INTO employees (code, name, department, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = CASE WHEN employees.name = '' THEN excluded.name ELSE employees.name END,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	created := 0
	for _, e := range employees {
		exists, err := employeeExists(ctx, db, e.Code)
		if err != nil {
			return 0, err
		}
		if _, err := db.ExecContext(ctx, query, e.Code, e.Name, e.Department, now, now); err != nil {
			return 0, fmt.Errorf("failed to upsert employee %s: %w", e.Code, err)
		}
		if !exists {
			created++
		}
	}
	return created, nil
}

func employeeExists(ctx context.Context, db querier, code string) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE code = ?", code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetEmployee retrieves an employee by code.
func (s *Store) GetEmployee(ctx context.Context, code string) (*attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, code)
}

func getEmployee(ctx context.Context, db querier, code string) (*attendance.Employee, error) {
	var emp attendance.Employee
	err := db.QueryRowContext(ctx,
		"SELECT code, name, department FROM employees WHERE code = ?",
		code,
	).Scan(&emp.Code, &emp.Name, &emp.Department)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by code.
func (s *Store) ListEmployees(ctx context.Context) ([]attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

func listEmployees(ctx context.Context, db querier) ([]attendance.Employee, error) {
	rows, err := db.QueryContext(ctx, "SELECT code, name, department FROM employees ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []attendance.Employee
	for rows.Next() {
		var emp attendance.Employee
		if err := rows.Scan(&emp.Code, &emp.Name, &emp.Department); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// UpdateEmployee overwrites name and department.
func (s *Store) UpdateEmployee(ctx context.Context, emp attendance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateEmployee(ctx, s.db, emp)
}

func updateEmployee(ctx context.Context, db querier, emp attendance.Employee) error {
	res, err := db.ExecContext(ctx,
		"UPDATE employees SET name = ?, department = ?, updated_at = ? WHERE code = ?",
		emp.Name, emp.Department, time.Now().UTC().Format(time.RFC3339), emp.Code,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return attendance.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// PUNCH LOG
// =============================================================================

// AppendPunchLogs stores the raw rows of a batch.
func (s *Store) AppendPunchLogs(ctx context.Context, batchID string, rows []attendance.PunchRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPunchLogs(ctx, s.db, batchID, rows)
}

func appendPunchLogs(ctx context.Context, db querier, batchID string, rows []attendance.PunchRow) error {
	query := `
		INSERT INTO punch_logs
		(batch_id, line, employee_code, employee_name, date, in_minutes, out_minutes,
		 device_total_minutes, shift, late_minutes, overtime_minutes, remark, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rows {
		_, err := db.ExecContext(ctx, query,
			batchID, r.Line, r.EmployeeCode, nullString(r.EmployeeName), r.Date.String(),
			nullClock(r.InTime), nullClock(r.OutTime), nullClock(r.DeviceTotal),
			nullString(r.Shift), r.LateMinutes, r.OvertimeMinutes, nullString(r.Remark), now,
		)
		if err != nil {
			return fmt.Errorf("failed to append punch log: %w", err)
		}
	}
	return nil
}

// PunchLogCount returns how many raw rows have been stored.
func (s *Store) PunchLogCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM punch_logs").Scan(&n)
	return n, err
}

// =============================================================================
// DAILY ATTENDANCE
// =============================================================================

// ReplaceDailyRecords writes whole records keyed by (employee, date).
func (s *Store) ReplaceDailyRecords(ctx context.Context, records []attendance.DailyRecord) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replaceDailyRecords(ctx, s.db, records)
}

func replaceDailyRecords(ctx context.Context, db querier, records []attendance.DailyRecord) (created, updated int, err error) {
	query := `
		INSERT INTO daily_attendance
		(employee_code, date, first_in, last_out, total_minutes, status, punch_count,
		 sessions_json, anomaly_raw_minutes, anomaly_clamped_to, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_code, date) DO UPDATE SET
			first_in = excluded.first_in,
			last_out = excluded.last_out,
			total_minutes = excluded.total_minutes,
			status = excluded.status,
			punch_count = excluded.punch_count,
			sessions_json = excluded.sessions_json,
			anomaly_raw_minutes = excluded.anomaly_raw_minutes,
			anomaly_clamped_to = excluded.anomaly_clamped_to,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		var n int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM daily_attendance WHERE employee_code = ? AND date = ?",
			r.EmployeeCode, r.Date.String(),
		).Scan(&n); err != nil {
			return 0, 0, err
		}

		sessionsJSON, err := json.Marshal(r.Sessions)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to encode sessions: %w", err)
		}
		var rawMinutes, clampedTo sql.NullInt64
		if r.Anomaly != nil {
			rawMinutes = sql.NullInt64{Int64: int64(r.Anomaly.RawMinutes), Valid: true}
			clampedTo = sql.NullInt64{Int64: int64(r.Anomaly.ClampedTo), Valid: true}
		}

		_, err = db.ExecContext(ctx, query,
			r.EmployeeCode, r.Date.String(), nullClock(r.FirstIn), nullClock(r.LastOut),
			r.TotalMinutes, string(r.Status), r.PunchCount, string(sessionsJSON),
			rawMinutes, clampedTo, now,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to write daily record: %w", err)
		}

		if n > 0 {
			updated++
		} else {
			created++
		}
	}
	return created, updated, nil
}

// LoadDailyRecords returns matching records ordered by code, then date.
func (s *Store) LoadDailyRecords(ctx context.Context, q attendance.DailyQuery) ([]attendance.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadDailyRecords(ctx, s.db, q)
}

func loadDailyRecords(ctx context.Context, db querier, q attendance.DailyQuery) ([]attendance.DailyRecord, error) {
	var where []string
	var args []any
	if q.EmployeeCode != "" {
		where = append(where, "employee_code = ?")
		args = append(args, q.EmployeeCode)
	}
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, q.To.String())
	}

	query := `
		SELECT employee_code, date, first_in, last_out, total_minutes, status,
			punch_count, sessions_json, anomaly_raw_minutes, anomaly_clamped_to
		FROM daily_attendance
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY employee_code, date"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.DailyRecord
	for rows.Next() {
		r, err := scanDailyRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanDailyRecord(rows *sql.Rows) (attendance.DailyRecord, error) {
	var r attendance.DailyRecord
	var date, status string
	var firstIn, lastOut, rawMinutes, clampedTo sql.NullInt64
	var sessionsJSON sql.NullString

	if err := rows.Scan(
		&r.EmployeeCode, &date, &firstIn, &lastOut, &r.TotalMinutes, &status,
		&r.PunchCount, &sessionsJSON, &rawMinutes, &clampedTo,
	); err != nil {
		return r, err
	}

	d, err := attendance.ParseDate(date)
	if err != nil {
		return r, err
	}
	r.Date = d
	r.Status = attendance.AttendanceStatus(status)
	r.FirstIn = clockPtr(firstIn)
	r.LastOut = clockPtr(lastOut)

	if sessionsJSON.Valid && sessionsJSON.String != "" && sessionsJSON.String != "null" {
		if err := json.Unmarshal([]byte(sessionsJSON.String), &r.Sessions); err != nil {
			return r, fmt.Errorf("failed to decode sessions: %w", err)
		}
	}
	if rawMinutes.Valid {
		r.Anomaly = &attendance.Anomaly{
			EmployeeCode: r.EmployeeCode,
			Date:         r.Date,
			RawMinutes:   int(rawMinutes.Int64),
			ClampedTo:    int(clampedTo.Int64),
		}
	}
	return r, nil
}

// RecordDates returns the distinct dates that have records, ascending.
func (s *Store) RecordDates(ctx context.Context) ([]attendance.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recordDates(ctx, s.db)
}

func recordDates(ctx context.Context, db querier) ([]attendance.Date, error) {
	rows, err := db.QueryContext(ctx, "SELECT DISTINCT date FROM daily_attendance ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []attendance.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		d, err := attendance.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// =============================================================================
// INGESTION LOG
// =============================================================================

type rowErrorRecord struct {
	Line         int    `json:"line"`
	EmployeeCode string `json:"employee_code,omitempty"`
	Kind         string `json:"kind"`
	Detail       string `json:"detail,omitempty"`
}

type anomalyRecord struct {
	EmployeeCode string `json:"employee_code"`
	Date         string `json:"date"`
	RawMinutes   int    `json:"raw_minutes"`
	ClampedTo    int    `json:"clamped_to"`
}

// SaveIngestionRun appends to the ingestion log. Saving the same ID again
// overwrites the entry.
func (s *Store) SaveIngestionRun(ctx context.Context, run attendance.IngestionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveIngestionRun(ctx, s.db, run)
}

func saveIngestionRun(ctx context.Context, db querier, run attendance.IngestionRun) error {
	query := `
		INSERT INTO ingestion_runs (id, source, status, rows_read, records_parsed,
			rows_rejected, employees_seen, employees_created, daily_created, daily_updated,
			weekly_created, errors_json, anomalies_json, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			rows_read = excluded.rows_read,
			records_parsed = excluded.records_parsed,
			rows_rejected = excluded.rows_rejected,
			employees_seen = excluded.employees_seen,
			employees_created = excluded.employees_created,
			daily_created = excluded.daily_created,
			daily_updated = excluded.daily_updated,
			weekly_created = excluded.weekly_created,
			errors_json = excluded.errors_json,
			anomalies_json = excluded.anomalies_json,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	res := run.Result
	errs := make([]rowErrorRecord, 0, len(res.Errors))
	for _, e := range res.Errors {
		rec := rowErrorRecord{Line: e.Line, EmployeeCode: e.EmployeeCode, Detail: e.Detail}
		if e.Kind != nil {
			rec.Kind = e.Kind.Error()
		}
		errs = append(errs, rec)
	}
	anomalies := make([]anomalyRecord, 0, len(res.Anomalies))
	for _, a := range res.Anomalies {
		anomalies = append(anomalies, anomalyRecord{
			EmployeeCode: a.EmployeeCode, Date: a.Date.String(),
			RawMinutes: a.RawMinutes, ClampedTo: a.ClampedTo,
		})
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("failed to encode row errors: %w", err)
	}
	anomaliesJSON, err := json.Marshal(anomalies)
	if err != nil {
		return fmt.Errorf("failed to encode anomalies: %w", err)
	}

	var completedAt *string
	if !run.CompletedAt.IsZero() {
		s := run.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &s
	}

	_, err = db.ExecContext(ctx, query,
		run.ID, run.Source, run.Status, res.RowsRead, res.RecordsParsed,
		res.RowsRejected, res.EmployeesSeen, res.EmployeesCreated,
		res.DailySummariesCreated, res.DailySummariesUpdated, res.WeeklySummariesCreated,
		string(errorsJSON), string(anomaliesJSON), nullString(run.Error),
		run.StartedAt.UTC().Format(time.RFC3339), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ingestion run: %w", err)
	}
	return nil
}

// ListIngestionRuns returns the newest runs first. limit <= 0 means all.
func (s *Store) ListIngestionRuns(ctx context.Context, limit int) ([]attendance.IngestionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listIngestionRuns(ctx, s.db, limit)
}

func listIngestionRuns(ctx context.Context, db querier, limit int) ([]attendance.IngestionRun, error) {
	query := `
		SELECT id, source, status, rows_read, records_parsed, rows_rejected,
			employees_seen, employees_created, daily_created, daily_updated,
			weekly_created, errors_json, anomalies_json, error, started_at, completed_at
		FROM ingestion_runs
		ORDER BY started_at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []attendance.IngestionRun
	for rows.Next() {
		var r attendance.IngestionRun
		var errorsJSON, anomaliesJSON, runErr, completedAt sql.NullString
		var startedAt string
		res := &r.Result
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Status, &res.RowsRead, &res.RecordsParsed, &res.RowsRejected,
			&res.EmployeesSeen, &res.EmployeesCreated, &res.DailySummariesCreated,
			&res.DailySummariesUpdated, &res.WeeklySummariesCreated,
			&errorsJSON, &anomaliesJSON, &runErr, &startedAt, &completedAt,
		); err != nil {
			return nil, err
		}

		res.BatchID = r.ID
		r.Error = runErr.String
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			r.CompletedAt, _ = time.Parse(time.RFC3339, completedAt.String)
		}

		var errs []rowErrorRecord
		if errorsJSON.Valid {
			if err := json.Unmarshal([]byte(errorsJSON.String), &errs); err != nil {
				return nil, fmt.Errorf("failed to decode row errors of run %s: %w", r.ID, err)
			}
		}
		for _, e := range errs {
			res.Errors = append(res.Errors, attendance.RowError{
				Line: e.Line, EmployeeCode: e.EmployeeCode,
				Kind: attendance.ParseRowErrorKind(e.Kind), Detail: e.Detail,
			})
		}

		var anomalies []anomalyRecord
		if anomaliesJSON.Valid {
			if err := json.Unmarshal([]byte(anomaliesJSON.String), &anomalies); err != nil {
				return nil, fmt.Errorf("failed to decode anomalies of run %s: %w", r.ID, err)
			}
		}
		for _, a := range anomalies {
			d, _ := attendance.ParseDate(a.Date)
			res.Anomalies = append(res.Anomalies, attendance.Anomaly{
				EmployeeCode: a.EmployeeCode, Date: d,
				RawMinutes: a.RawMinutes, ClampedTo: a.ClampedTo,
			})
		}

		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// POLICY STORE (attendance.PolicyStore interface)
// =============================================================================

const activePolicyID = "active"

// LoadPolicy returns the saved policy, or the default when none was saved.
func (s *Store) LoadPolicy(ctx context.Context) (attendance.PolicyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT config_json FROM policies WHERE id = ?", activePolicyID,
	).Scan(&configJSON)

	if err == sql.ErrNoRows {
		return attendance.DefaultPolicy(), nil
	}
	if err != nil {
		return attendance.PolicyConfig{}, err
	}

	policy := attendance.DefaultPolicy()
	if err := json.Unmarshal([]byte(configJSON), &policy); err != nil {
		return attendance.PolicyConfig{}, fmt.Errorf("failed to decode policy: %w", err)
	}
	return policy, nil
}

// SavePolicy validates and replaces the active policy, bumping its version.
func (s *Store) SavePolicy(ctx context.Context, policy attendance.PolicyConfig) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	configJSON, err := json.Marshal(policy)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO policies (id, config_json, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			version = policies.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, activePolicyID, string(configJSON), now, now)
	return err
}

// PolicyVersion returns how many times the policy has been saved.
func (s *Store) PolicyVersion(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM policies WHERE id = ?", activePolicyID).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return v, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all attendance data (for testing/demo). The policy is kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reset(ctx, s.db)
}

func reset(ctx context.Context, db querier) error {
	tables := []string{"daily_attendance", "punch_logs", "ingestion_runs", "employees"}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullClock(c *attendance.ClockTime) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(c.Minutes()), Valid: true}
}

func clockPtr(n sql.NullInt64) *attendance.ClockTime {
	if !n.Valid {
		return nil
	}
	c := attendance.ClockTime(n.Int64)
	return &c
}

// =============================================================================
// TRANSACTIONAL STORE (attendance.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store attendance.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every call on the open transaction. It never takes the
// parent's lock, which WithTx already holds.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) UpsertEmployees(ctx context.Context, employees []attendance.Employee) (int, error) {
	return upsertEmployees(ctx, ts.tx, employees)
}

func (ts *txStore) GetEmployee(ctx context.Context, code string) (*attendance.Employee, error) {
	return getEmployee(ctx, ts.tx, code)
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]attendance.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) UpdateEmployee(ctx context.Context, emp attendance.Employee) error {
	return updateEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) AppendPunchLogs(ctx context.Context, batchID string, rows []attendance.PunchRow) error {
	return appendPunchLogs(ctx, ts.tx, batchID, rows)
}

func (ts *txStore) ReplaceDailyRecords(ctx context.Context, records []attendance.DailyRecord) (int, int, error) {
	return replaceDailyRecords(ctx, ts.tx, records)
}

func (ts *txStore) LoadDailyRecords(ctx context.Context, q attendance.DailyQuery) ([]attendance.DailyRecord, error) {
	return loadDailyRecords(ctx, ts.tx, q)
}

func (ts *txStore) RecordDates(ctx context.Context) ([]attendance.Date, error) {
	return recordDates(ctx, ts.tx)
}

func (ts *txStore) SaveIngestionRun(ctx context.Context, run attendance.IngestionRun) error {
	return saveIngestionRun(ctx, ts.tx, run)
}

func (ts *txStore) ListIngestionRuns(ctx context.Context, limit int) ([]attendance.IngestionRun, error) {
	return listIngestionRuns(ctx, ts.tx, limit)
}

func (ts *txStore) Reset(ctx context.Context) error {
	return reset(ctx, ts.tx)
}

var (
	_ attendance.TxStore     = (*Store)(nil)
	_ attendance.PolicyStore = (*Store)(nil)
	_ attendance.Store       = (*txStore)(nil)
)
