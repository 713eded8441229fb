package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/prometheus"
)

// Metrics returns middleware that records per-request counters and latency
// histograms.  The route pattern ("/api/v1/comparisons/{comparisonID}") is
// used as the path label so cardinality stays bounded.
func Metrics(m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newWrappedResponseWriter(w)

			m.HTTPActiveRequests.WithLabelValues().Inc()
			next.ServeHTTP(wrapped, r)

			pattern := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				pattern = rc.RoutePattern()
			}
			m.HTTPActiveRequests.WithLabelValues().Dec()
			m.ObserveHTTP(r.Method, pattern, wrapped.statusCode, time.Since(start).Seconds())
		})
	}
}
