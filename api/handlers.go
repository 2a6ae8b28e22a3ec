/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes ingestion, reports and settings via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Uploads:
    POST   /api/upload                    Ingest a .csv/.xlsx/.xls punch file
    GET    /api/uploads/runs              Ingestion log

  Employees:
    GET    /api/employees                 List (search, skip, limit)
    GET    /api/employees/{code}          Employee with attendance stats
    PUT    /api/employees/{code}          Update name and department

  Reports (reports.go):
    GET    /api/reports/...               Dashboard, fleet, individual, daily
    GET    /api/reports/export/...        CSV/XLSX downloads

  Settings:
    GET    /api/settings                  Active policy
    PUT    /api/settings                  Validate and replace the policy

  Scenarios (scenarios.go):
    GET    /api/scenarios                 List demo scenarios
    POST   /api/scenarios/load            Load a demo scenario
    POST   /api/scenarios/reset           Clear attendance data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (attendance + policy)
  - Ingestor: The single write path
  - Composer: The read path
  - Parser: Spreadsheet decoding
  - PolicyFactory: JSON to PolicyConfig conversion

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unparseable files
  - 404: Unknown employee
  - 413: Upload too large
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - reports.go: Report and export handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/ingest"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs.
type Store interface {
	attendance.TxStore
	attendance.PolicyStore
}

// DefaultMaxUploadBytes is used when MaxUploadBytes is unset.
const DefaultMaxUploadBytes = 10 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          Store
	Ingestor       *attendance.Ingestor
	Composer       *report.Composer
	Parser         *ingest.Parser
	PolicyFactory  *factory.PolicyFactory
	Logger         logrus.FieldLogger
	MaxUploadBytes int64

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		Store:          store,
		Ingestor:       attendance.NewIngestor(store, logger),
		Composer:       report.NewComposer(store),
		Parser:         ingest.NewParser(),
		PolicyFactory:  factory.NewPolicyFactory(),
		Logger:         logger,
		MaxUploadBytes: DefaultMaxUploadBytes,
		validate:       validator.New(),
	}
}

// SetCalendar changes the week anchoring for ingestion counts and reports.
func (h *Handler) SetCalendar(cal attendance.WeekCalendar) {
	h.Ingestor.Calendar = cal
	h.Composer.Calendar = cal
}

// =============================================================================
// UPLOADS
// =============================================================================

// Upload ingests a multipart punch file (field "file").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d MB", limit>>20), err)
			return
		}
		writeError(w, http.StatusBadRequest, "Missing upload field 'file'", err)
		return
	}
	defer file.Close()

	if !ingest.SupportedFile(header.Filename) {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only .xlsx, .xls and .csv files are allowed", nil)
		return
	}

	dto, err := h.ImportFile(r.Context(), header.Filename, file)
	if err != nil {
		h.fail(w, "Upload", "Failed to process file", err, dto)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ImportFile parses and ingests one file under the active policy. On
// ErrNoValidRows the partial result is returned with the error.
func (h *Handler) ImportFile(ctx context.Context, filename string, r io.Reader) (*UploadResultDTO, error) {
	parsed, err := h.Parser.ParseFile(filename, r)
	if err != nil {
		return nil, err
	}

	policy, err := h.Store.LoadPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	result, err := h.Ingestor.Ingest(ctx, filename, parsed.Rows, policy)
	if result == nil {
		return nil, err
	}

	dto := toUploadResultDTO(filename, result)
	dto.Warnings = parsed.Warnings
	if err != nil {
		dto.Message = "No valid attendance rows"
		return &dto, err
	}
	return &dto, nil
}

// ListIngestionRuns returns the ingestion log, newest first.
func (h *Handler) ListIngestionRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	runs, err := h.Store.ListIngestionRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, "ListIngestionRuns", "Failed to list ingestion runs", err, nil)
		return
	}

	dtos := make([]IngestionRunDTO, 0, len(runs))
	for _, run := range runs {
		res := run.Result
		dto := IngestionRunDTO{
			ID:        run.ID,
			Source:    run.Source,
			Status:    run.Status,
			Error:     run.Error,
			StartedAt: run.StartedAt.Format(time.RFC3339),
			Result:    toUploadResultDTO(run.Source, &res),
		}
		dto.Result.Message = ""
		if !run.CompletedAt.IsZero() {
			dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns a filtered page of employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	q := EmployeeQuery{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	var err error
	if q.Skip, err = intParam(r, "skip", 0); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid skip", err)
		return
	}
	if q.Limit, err = intParam(r, "limit", 100); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		writeValidationError(w, "Invalid query", err)
		return
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, "ListEmployees", "Failed to list employees", err, nil)
		return
	}

	needle := strings.ToLower(q.Search)
	var matched []attendance.Employee
	for _, e := range employees {
		if needle == "" ||
			strings.Contains(strings.ToLower(e.Code), needle) ||
			strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Department), needle) {
			matched = append(matched, e)
		}
	}

	page := EmployeeListDTO{Employees: []EmployeeDTO{}, Total: len(matched), Skip: q.Skip, Limit: q.Limit}
	for i := q.Skip; i < len(matched) && i < q.Skip+q.Limit; i++ {
		page.Employees = append(page.Employees, toEmployeeDTO(matched[i]))
	}
	writeJSON(w, http.StatusOK, page)
}

// GetEmployee returns a single employee with attendance stats.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	emp, err := h.Store.GetEmployee(r.Context(), code)
	if err != nil {
		h.fail(w, "GetEmployee", "Failed to get employee", err, nil)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	records, err := h.Store.LoadDailyRecords(r.Context(), attendance.DailyQuery{EmployeeCode: code})
	if err != nil {
		h.fail(w, "GetEmployee", "Failed to load attendance", err, nil)
		return
	}

	dto := EmployeeDetailDTO{EmployeeDTO: toEmployeeDTO(*emp), TotalDays: len(records)}
	minutes := 0
	for _, rec := range records {
		minutes += rec.TotalMinutes
		if rec.WorkedInOffice() {
			dto.WFODays++
		}
	}
	dto.TotalOfficeHours = hours(minutes)
	if len(records) > 0 {
		dto.FirstRecord = records[0].Date.String()
		dto.LastRecord = records[len(records)-1].Date.String()
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpdateEmployee replaces an employee's name and department.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Department = strings.TrimSpace(req.Department)
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, "Invalid employee", err)
		return
	}

	emp := attendance.Employee{Code: code, Name: req.Name, Department: req.Department}
	if err := h.Store.UpdateEmployee(r.Context(), emp); err != nil {
		h.fail(w, "UpdateEmployee", "Failed to update employee", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the active policy.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.LoadPolicy(r.Context())
	if err != nil {
		h.fail(w, "GetSettings", "Failed to load settings", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(policy))
}

// UpdateSettings validates and replaces the active policy. Fields missing
// from the body keep their current values. On rejection the prior policy
// stays active.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.Store.LoadPolicy(r.Context())
	if err != nil {
		h.fail(w, "UpdateSettings", "Failed to load settings", err, nil)
		return
	}

	pj := factory.ToJSON(current)
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy, err := h.PolicyFactory.FromJSON(pj)
	if err != nil {
		writeValidationError(w, "Invalid settings", err)
		return
	}
	if err := h.Store.SavePolicy(r.Context(), policy); err != nil {
		h.fail(w, "UpdateSettings", "Failed to save settings", err, nil)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"module":   "api",
		"funcName": "UpdateSettings",
		"policy":   factory.ToJSON(policy),
	}).Info("policy updated")

	writeJSON(w, http.StatusOK, toSettingsDTO(policy))
}

func toSettingsDTO(p attendance.PolicyConfig) SettingsDTO {
	return SettingsDTO{
		PolicyJSON:            factory.ToJSON(p),
		ExpectedWeeklyMinutes: p.ExpectedWeeklyMinutes(),
		Thresholds: map[string]float64{
			"red":   p.ThresholdRed.InexactFloat64(),
			"amber": p.ThresholdAmber.InexactFloat64(),
		},
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeValidationError reports a 400 with one entry per failing field.
func writeValidationError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error(), Fields: factory.ValidationErrors(err)}
	writeJSON(w, http.StatusBadRequest, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case attendance.IsNotFound(err):
		return http.StatusNotFound
	case attendance.IsClientError(err),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrHeaderNotFound),
		errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Server errors are logged; data,
// when non-nil, is logged with them.
func (h *Handler) fail(w http.ResponseWriter, funcName, message string, err error, data any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		config.LogError(h.Logger, "api", funcName, message, data, err)
	}
	if dto, ok := data.(*UploadResultDTO); ok && dto != nil && status == http.StatusBadRequest {
		writeJSON(w, status, struct {
			ErrorResponse
			Result *UploadResultDTO `json:"result"`
		}{ErrorResponse{Error: message, Details: err.Error()}, dto})
		return
	}
	writeError(w, status, message, err)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// dateParam parses an optional ISO date query parameter.
func dateParam(r *http.Request, name string) (attendance.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return attendance.Date{}, nil
	}
	d, err := attendance.ParseDate(v)
	if err != nil {
		return attendance.Date{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
