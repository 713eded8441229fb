// Package http wires the route tree and HTTP server for the comparison
// dashboard API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/prometheus"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/http/handlers"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required
// to build the route tree.  Nil middleware entries are skipped; nil
// handlers leave their routes unregistered.
type RouterConfig struct {
	ComparisonHandler *handlers.ComparisonHandler
	ChangeHandler     *handlers.ChangeHandler
	HealthHandler     *handlers.HealthHandler

	AuthMiddleware   *middleware.AuthMiddleware
	CORS             func(http.Handler) http.Handler
	RequestLogging   func(http.Handler) http.Handler
	RateLimit        func(http.Handler) http.Handler
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete route tree: public health probes and
// metrics, plus the authenticated /api/v1 resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RequestLogging != nil {
		r.Use(cfg.RequestLogging)
	}
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Handler)
		}

		registerComparisonRoutes(api, cfg.ComparisonHandler)
		registerChangeRoutes(api, cfg.ChangeHandler)
	})

	return r
}

// registerComparisonRoutes mounts the comparison lifecycle under
// /comparisons and drawing ingestion under /drawings.
func registerComparisonRoutes(r chi.Router, h *handlers.ComparisonHandler) {
	if h == nil {
		return
	}
	r.Route("/comparisons", func(cr chi.Router) {
		cr.Post("/", h.Submit)
		cr.Post("/generate", h.Generate)

		cr.Route("/{comparisonID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Post("/alignment", h.Realign)
			item.Post("/analysis", h.Analyze)
		})
	})
	r.Post("/drawings/ingest", h.Ingest)
}

// registerChangeRoutes mounts change listing under its comparison and the
// flat create endpoint.
func registerChangeRoutes(r chi.Router, h *handlers.ChangeHandler) {
	if h == nil {
		return
	}
	r.Route("/comparisons/{comparisonID}/changes", func(cr chi.Router) {
		cr.Get("/", h.List)
		cr.Patch("/{changeID}", h.Update)
	})
	r.Post("/changes", h.Create)
}
