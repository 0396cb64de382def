/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Metrics:    Prometheus request counters and latency

ROUTE GROUPS:
  /api/records/*        Time record CRUD
  /api/settings/*       Account settings
  /api/summary/*        Week and month summaries
  /api/balance          All-time flex balance
  /api/vacation         Vacation balance and expiry warning
  /api/holidays         Public holiday calendar
  /api/export, /import  CSV transfer
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. The tool is deployed on an internal
  network; the acting user is picked via query parameter.

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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verk/timetrack/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, collector *metrics.Collector, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if collector != nil {
		r.Use(requestMetrics(collector))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Record routes
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.CreateRecord)
			r.Get("/{id}", h.GetRecord)
			r.Patch("/{id}", h.UpdateRecord)
			r.Delete("/{id}", h.DeleteRecord)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Patch("/tracking", h.UpdateTrackingSettings)
			r.Patch("/vacation", h.UpdateVacationSettings)
			r.Put("/weekday-defaults", h.UpdateWeekdayDefaults)
		})

		// Summary routes
		r.Route("/summary", func(r chi.Router) {
			r.Get("/week", h.GetWeekSummary)
			r.Get("/month", h.GetMonthSummary)
		})

		r.Get("/balance", h.GetBalance)
		r.Get("/vacation", h.GetVacation)
		r.Get("/holidays", h.ListHolidays)

		// CSV transfer routes
		r.Get("/export", h.ExportCSV)
		r.Post("/import", h.ImportCSV)
	})

	// Prometheus scrape endpoint
	if gatherer != nil {
		r.Handle("/metrics", metrics.Handler(gatherer))
	}

	return r
}

// requestMetrics feeds every finished request into the collector.
func requestMetrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			collector.RecordRequest(r.Method, ww.Status(), time.Since(start))
		})
	}
}
