/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	punch data for demos. Each scenario is a batch of punch rows that goes
	through the same Ingestor as an uploaded file.

AVAILABLE SCENARIOS:

	hybrid-week:    Mixed office attendance across a team (GREEN/AMBER/RED)
	lunch-breaks:   Several IN/OUT pairs per day, outer span counted
	night-shift:    Shifts crossing midnight plus one implausible span
	malformed-rows: Rows without a date or employee code, skipped and counted

HOW SCENARIOS WORK:
 1. Reset attendance data (the policy is kept)
 2. Build punch rows for the week before the current one
 3. Ingest them under the active policy

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "hybrid-week", "preset": "office-first"}

	The optional preset activates a policy preset before ingesting.

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create a row builder: xxxRows(week) []attendance.PunchRow
 3. Register it in scenarioRows

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ImportFile, the upload path they mirror
  - attendance/ingestor.go: Ingest
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "hybrid-week",
		Name:        "Hybrid Week",
		Description: "Five employees with full, partial and missing office days",
		Category:    "compliance",
	},
	{
		ID:          "lunch-breaks",
		Name:        "Lunch Breaks",
		Description: "Multiple punches per day; only first IN to last OUT counts",
		Category:    "reconciliation",
	},
	{
		ID:          "night-shift",
		Name:        "Night Shift",
		Description: "Shifts crossing midnight and a span clamped as anomalous",
		Category:    "reconciliation",
	},
	{
		ID:          "malformed-rows",
		Name:        "Malformed Rows",
		Description: "Rows without date or employee code are rejected, the rest ingested",
		Category:    "ingestion",
	},
}

var scenarioRows = map[string]func(attendance.Week) []attendance.PunchRow{
	"hybrid-week":    hybridWeekRows,
	"lunch-breaks":   lunchBreakRows,
	"night-shift":    nightShiftRows,
	"malformed-rows": malformedRows,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, "Invalid request", err)
		return
	}

	build, ok := scenarioRows[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	result, err := h.loadScenario(r.Context(), req, build)
	if err != nil {
		h.fail(w, "LoadScenario", fmt.Sprintf("Failed to load scenario: %v", err), err, req)
		return
	}

	dto := toUploadResultDTO("scenario:"+req.ScenarioID, result)
	dto.Message = "Scenario loaded"
	writeJSON(w, http.StatusOK, dto)
}

// ResetDatabase clears all attendance data. The policy is kept.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "ResetDatabase", "Failed to reset database", err, nil)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadScenario(ctx context.Context, req LoadScenarioRequest, build func(attendance.Week) []attendance.PunchRow) (*attendance.IngestResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	h.currentScenario = ""

	if req.Preset != "" {
		doc, ok := factory.PresetJSON(req.Preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", req.Preset)
		}
		preset, err := h.PolicyFactory.ParsePolicy(doc)
		if err != nil {
			return nil, err
		}
		if err := h.Store.SavePolicy(ctx, preset); err != nil {
			return nil, fmt.Errorf("save preset: %w", err)
		}
	}

	policy, err := h.Store.LoadPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	week := h.Ingestor.Calendar.WeekFor(attendance.Today()).Previous()
	result, err := h.Ingestor.Ingest(ctx, "scenario:"+req.ScenarioID, build(week), policy)
	if err != nil {
		return nil, err
	}

	h.currentScenario = req.ScenarioID
	return result, nil
}

// =============================================================================
// SCENARIO ROWS
// =============================================================================

func clock(hour, minute int) *attendance.ClockTime {
	return attendance.NewClockTime(hour, minute).Ptr()
}

func shift(code, name string, d attendance.Date, inH, inM, outH, outM int) attendance.PunchRow {
	return attendance.PunchRow{
		EmployeeCode: code,
		EmployeeName: name,
		Date:         d,
		InTime:       clock(inH, inM),
		OutTime:      clock(outH, outM),
	}
}

func hybridWeekRows(week attendance.Week) []attendance.PunchRow {
	days := week.Days()
	var rows []attendance.PunchRow

	// Three full office days.
	for _, d := range days[:3] {
		rows = append(rows, shift("E101", "Priya Nair", d, 9, 0, 18, 0))
	}
	// Four shorter days, above the expected hours.
	for _, d := range days[:4] {
		rows = append(rows, shift("E102", "Tomás Rivera", d, 9, 30, 16, 30))
	}
	// Three days, one of them short: AMBER.
	rows = append(rows,
		shift("E103", "Mei Lin", days[0], 9, 0, 17, 0),
		shift("E103", "Mei Lin", days[1], 9, 0, 17, 0),
		shift("E103", "Mei Lin", days[2], 9, 44, 14, 2),
	)
	// Two office days: RED.
	rows = append(rows,
		shift("E104", "Kwame Mensah", days[1], 10, 0, 18, 0),
		shift("E104", "Kwame Mensah", days[3], 10, 0, 18, 0),
	)
	// Forgot to punch out once.
	rows = append(rows,
		shift("E105", "Sara Berg", days[0], 8, 45, 17, 45),
		attendance.PunchRow{EmployeeCode: "E105", EmployeeName: "Sara Berg", Date: days[2], InTime: clock(9, 0)},
	)
	return rows
}

func lunchBreakRows(week attendance.Week) []attendance.PunchRow {
	var rows []attendance.PunchRow
	for _, d := range week.Days()[:3] {
		rows = append(rows,
			shift("E201", "Jonas Weber", d, 9, 0, 12, 30),
			shift("E201", "Jonas Weber", d, 13, 15, 17, 45),
			shift("E202", "Aiko Sato", d, 8, 30, 12, 0),
			shift("E202", "Aiko Sato", d, 12, 45, 15, 0),
			shift("E202", "Aiko Sato", d, 15, 20, 18, 10),
		)
	}
	return rows
}

func nightShiftRows(week attendance.Week) []attendance.PunchRow {
	var rows []attendance.PunchRow
	for _, d := range week.Days()[:3] {
		rows = append(rows, shift("E301", "Omar Haddad", d, 22, 0, 6, 0))
	}
	rows = append(rows,
		shift("E302", "Lena Novak", week.Start, 14, 0, 22, 30),
		shift("E302", "Lena Novak", week.Start.AddDays(1), 6, 0, 5, 59),
	)
	return rows
}

func malformedRows(week attendance.Week) []attendance.PunchRow {
	rows := []attendance.PunchRow{
		shift("E401", "Ruth Okafor", week.Start, 9, 0, 17, 30),
		shift("E401", "Ruth Okafor", week.Start.AddDays(1), 9, 0, 17, 30),
		shift("", "Unknown", week.Start, 9, 0, 17, 0),
		{EmployeeCode: "E402", EmployeeName: "Ivan Petrov", InTime: clock(9, 0), OutTime: clock(17, 0)},
	}
	for i := range rows {
		rows[i].Line = i + 2
	}
	return rows
}
