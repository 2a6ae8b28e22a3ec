/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (logrus)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/upload, /api/uploads/*   Punch file ingestion
  /api/employees/*              Employee management
  /api/reports/*                Reports and exports
  /api/settings                 Active policy
  /api/scenarios/*              Demo scenarios
  /health                       Liveness
  /                             Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Ingestion routes
		r.Post("/upload", h.Upload)
		r.Get("/uploads/runs", h.ListIngestionRuns)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{code}", h.GetEmployee)
			r.Put("/{code}", h.UpdateEmployee)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)
			r.Get("/dashboard-stats", h.DashboardStats)
			r.Get("/daily-details", h.DailyDetails)
			r.Get("/weeks", h.Weeks)
			r.Get("/all-employees", h.AllEmployees)
			r.Get("/wfo-compliance", h.WFOCompliance)
			r.Get("/individual/{code}", h.Individual)

			r.Route("/export", func(r chi.Router) {
				r.Get("/all-employees", h.ExportAllEmployees)
				r.Get("/wfo-compliance", h.ExportWFOCompliance)
				r.Get("/individual/{code}", h.ExportIndividual)
			})
		})

		// Settings routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Attendance Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Attendance Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/reports/dashboard">/api/reports/dashboard</a> - Latest week at a glance</li>
<li><a href="/api/reports/all-employees">/api/reports/all-employees</a> - Weekly compliance per employee</li>
<li><a href="/api/employees">/api/employees</a> - List employees</li>
<li><a href="/api/settings">/api/settings</a> - Active policy</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				entry := logger.WithFields(logrus.Fields{
					"module":      "http",
					"request_id":  middleware.GetReqID(r.Context()),
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
				})
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn("request failed")
					return
				}
				entry.Info("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
