package prometheus

import (
	"strconv"

	"github.com/planlens/PlanLens-Compare/internal/application/polling"
)

// AppMetrics holds every metric the service emits.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Polling
	PollTicksTotal     CounterVec
	JobOutcomesTotal   CounterVec
	FetchFailuresTotal CounterVec
	JobDuration        HistogramVec
	JobAttempts        HistogramVec

	// Alignment
	AlignmentEstimatesTotal CounterVec
	AlignmentResidual       HistogramVec

	// Changeset
	ChangeSnapshotsTotal CounterVec
	CacheHitsTotal       CounterVec
	CacheMissesTotal     CounterVec

	// Event bus
	EventsPublishedTotal CounterVec

	// Health
	HealthCheckStatus GaugeVec
}

var (
	httpDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	jobDurationBuckets  = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	attemptBuckets      = []float64{1, 2, 5, 10, 20, 50, 100, 300}
	residualBuckets     = []float64{.1, .5, 1, 5, 10, 25, 50, 100, 500}
)

// NewAppMetrics registers every metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total",
		"Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds",
		"HTTP request duration", httpDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests",
		"In-flight HTTP requests")

	m.PollTicksTotal = collector.RegisterCounter("poll_ticks_total",
		"Status polls issued", "kind")
	m.JobOutcomesTotal = collector.RegisterCounter("job_outcomes_total",
		"Terminal job phases", "kind", "phase")
	m.FetchFailuresTotal = collector.RegisterCounter("poll_fetch_failures_total",
		"Failed status fetches", "kind")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds",
		"Wall-clock job duration", jobDurationBuckets, "kind")
	m.JobAttempts = collector.RegisterHistogram("job_attempts",
		"Polls until terminal", attemptBuckets, "kind")

	m.AlignmentEstimatesTotal = collector.RegisterCounter("alignment_estimates_total",
		"Similarity estimations", "outcome")
	m.AlignmentResidual = collector.RegisterHistogram("alignment_residual",
		"RMS registration residual", residualBuckets)

	m.ChangeSnapshotsTotal = collector.RegisterCounter("change_snapshots_total",
		"Change snapshots built", "origin")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total",
		"Snapshot cache hits")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total",
		"Snapshot cache misses")

	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total",
		"Bus events published", "topic", "result")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status",
		"1 healthy, 0 unhealthy", "component")

	return m
}

// PollListener adapts the metrics into a polling transition listener.
func (m *AppMetrics) PollListener() polling.Listener {
	return func(tr polling.Transition) {
		kind := string(tr.Kind)
		if tr.To == polling.PhasePolling {
			m.PollTicksTotal.WithLabelValues(kind).Inc()
			return
		}
		if tr.To.Terminal() {
			m.JobOutcomesTotal.WithLabelValues(kind, string(tr.To)).Inc()
			m.JobAttempts.WithLabelValues(kind).Observe(float64(tr.Attempt))
		}
	}
}

// ObserveHTTP records one completed request.
func (m *AppMetrics) ObserveHTTP(method, path string, status int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
