// Package store provides in-memory attendance.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[string]attendance.Employee
	records   map[key]attendance.DailyRecord
	punches   []punchLog
	runs      []attendance.IngestionRun
	policy    *attendance.PolicyConfig
}

type key struct {
	Code string
	Date attendance.Date
}

type punchLog struct {
	BatchID string
	Row     attendance.PunchRow
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[string]attendance.Employee),
		records:   make(map[key]attendance.DailyRecord),
	}
}

func (m *Memory) UpsertEmployees(_ context.Context, employees []attendance.Employee) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertEmployeesLocked(employees), nil
}

func (m *Memory) upsertEmployeesLocked(employees []attendance.Employee) int {
	created := 0
	for _, e := range employees {
		existing, ok := m.employees[e.Code]
		if !ok {
			m.employees[e.Code] = e
			created++
			continue
		}
		if existing.Name == "" && e.Name != "" {
			existing.Name = e.Name
			m.employees[e.Code] = existing
		}
	}
	return created
}

func (m *Memory) GetEmployee(_ context.Context, code string) (*attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(code), nil
}

func (m *Memory) getEmployeeLocked(code string) *attendance.Employee {
	e, ok := m.employees[code]
	if !ok {
		return nil
	}
	return &e
}

func (m *Memory) ListEmployees(_ context.Context) ([]attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(), nil
}

func (m *Memory) listEmployeesLocked() []attendance.Employee {
	result := make([]attendance.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

func (m *Memory) UpdateEmployee(_ context.Context, emp attendance.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateEmployeeLocked(emp)
}

func (m *Memory) updateEmployeeLocked(emp attendance.Employee) error {
	if _, ok := m.employees[emp.Code]; !ok {
		return attendance.ErrEmployeeNotFound
	}
	m.employees[emp.Code] = emp
	return nil
}

func (m *Memory) AppendPunchLogs(_ context.Context, batchID string, rows []attendance.PunchRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendPunchLogsLocked(batchID, rows)
	return nil
}

func (m *Memory) appendPunchLogsLocked(batchID string, rows []attendance.PunchRow) {
	for _, r := range rows {
		m.punches = append(m.punches, punchLog{BatchID: batchID, Row: r})
	}
}

// PunchLogCount returns how many raw rows have been stored.
func (m *Memory) PunchLogCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.punches)
}

func (m *Memory) ReplaceDailyRecords(_ context.Context, records []attendance.DailyRecord) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, updated := m.replaceDailyRecordsLocked(records)
	return created, updated, nil
}

func (m *Memory) replaceDailyRecordsLocked(records []attendance.DailyRecord) (created, updated int) {
	for _, r := range records {
		k := key{Code: r.EmployeeCode, Date: r.Date}
		if _, ok := m.records[k]; ok {
			updated++
		} else {
			created++
		}
		m.records[k] = r
	}
	return created, updated
}

func (m *Memory) LoadDailyRecords(_ context.Context, q attendance.DailyQuery) ([]attendance.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadDailyRecordsLocked(q), nil
}

func (m *Memory) loadDailyRecordsLocked(q attendance.DailyQuery) []attendance.DailyRecord {
	rng := attendance.DateRange{From: q.From, To: q.To}
	var result []attendance.DailyRecord
	for k, r := range m.records {
		if q.EmployeeCode != "" && k.Code != q.EmployeeCode {
			continue
		}
		if !rng.Contains(k.Date) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EmployeeCode != result[j].EmployeeCode {
			return result[i].EmployeeCode < result[j].EmployeeCode
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

func (m *Memory) RecordDates(_ context.Context) ([]attendance.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordDatesLocked(), nil
}

func (m *Memory) recordDatesLocked() []attendance.Date {
	seen := make(map[attendance.Date]bool)
	var dates []attendance.Date
	for k := range m.records {
		if !seen[k.Date] {
			seen[k.Date] = true
			dates = append(dates, k.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (m *Memory) SaveIngestionRun(_ context.Context, run attendance.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListIngestionRuns(_ context.Context, limit int) ([]attendance.IngestionRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listIngestionRunsLocked(limit), nil
}

func (m *Memory) listIngestionRunsLocked(limit int) []attendance.IngestionRun {
	var result []attendance.IngestionRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, m.runs[i])
	}
	return result
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

func (m *Memory) resetLocked() {
	m.employees = make(map[string]attendance.Employee)
	m.records = make(map[key]attendance.DailyRecord)
	m.punches = nil
	m.runs = nil
}

// =============================================================================
// POLICY
// =============================================================================

func (m *Memory) LoadPolicy(_ context.Context) (attendance.PolicyConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.policy == nil {
		return attendance.DefaultPolicy(), nil
	}
	return *m.policy, nil
}

func (m *Memory) SavePolicy(_ context.Context, policy attendance.PolicyConfig) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = &policy
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(attendance.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	employees := make(map[string]attendance.Employee, len(tm.employees))
	for k, v := range tm.employees {
		employees[k] = v
	}
	records := make(map[key]attendance.DailyRecord, len(tm.records))
	for k, v := range tm.records {
		records[k] = v
	}
	return memorySnapshot{
		employees: employees,
		records:   records,
		punches:   append([]punchLog(nil), tm.punches...),
		runs:      append([]attendance.IngestionRun(nil), tm.runs...),
	}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.employees = s.employees
	tm.records = s.records
	tm.punches = s.punches
	tm.runs = s.runs
}

type memorySnapshot struct {
	employees map[string]attendance.Employee
	records   map[key]attendance.DailyRecord
	punches   []punchLog
	runs      []attendance.IngestionRun
}

type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) UpsertEmployees(_ context.Context, employees []attendance.Employee) (int, error) {
	return tv.parent.upsertEmployeesLocked(employees), nil
}

func (tv *txMemoryView) GetEmployee(_ context.Context, code string) (*attendance.Employee, error) {
	return tv.parent.getEmployeeLocked(code), nil
}

func (tv *txMemoryView) ListEmployees(_ context.Context) ([]attendance.Employee, error) {
	return tv.parent.listEmployeesLocked(), nil
}

func (tv *txMemoryView) UpdateEmployee(_ context.Context, emp attendance.Employee) error {
	return tv.parent.updateEmployeeLocked(emp)
}

func (tv *txMemoryView) AppendPunchLogs(_ context.Context, batchID string, rows []attendance.PunchRow) error {
	tv.parent.appendPunchLogsLocked(batchID, rows)
	return nil
}

func (tv *txMemoryView) ReplaceDailyRecords(_ context.Context, records []attendance.DailyRecord) (int, int, error) {
	created, updated := tv.parent.replaceDailyRecordsLocked(records)
	return created, updated, nil
}

func (tv *txMemoryView) LoadDailyRecords(_ context.Context, q attendance.DailyQuery) ([]attendance.DailyRecord, error) {
	return tv.parent.loadDailyRecordsLocked(q), nil
}

func (tv *txMemoryView) RecordDates(_ context.Context) ([]attendance.Date, error) {
	return tv.parent.recordDatesLocked(), nil
}

func (tv *txMemoryView) SaveIngestionRun(_ context.Context, run attendance.IngestionRun) error {
	tv.parent.runs = append(tv.parent.runs, run)
	return nil
}

func (tv *txMemoryView) ListIngestionRuns(_ context.Context, limit int) ([]attendance.IngestionRun, error) {
	return tv.parent.listIngestionRunsLocked(limit), nil
}

func (tv *txMemoryView) Reset(_ context.Context) error {
	tv.parent.resetLocked()
	return nil
}
