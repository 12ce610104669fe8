package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. Each instance
// owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	UploadsTotal     *prometheus.CounterVec
	TasksDistributed prometheus.Counter
	TaskTransitions  *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of error responses by error code",
			},
			[]string{"method", "path", "code"},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "task_uploads_total",
				Help: "Spreadsheet uploads by outcome",
			},
			[]string{"outcome"}, // success, rejected
		),
		TasksDistributed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tasks_distributed_total",
			Help: "Total number of tasks created by uploads",
		}),
		TaskTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "task_status_transitions_total",
				Help: "Task status changes made by agents",
			},
			[]string{"status"},
		),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Login attempts by role and outcome",
			},
			[]string{"role", "status"},
		),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Analytics snapshots served from cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Analytics snapshots computed from storage",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordUpload counts an upload attempt and the tasks it produced.
func (m *Metrics) RecordUpload(success bool, tasks int) {
	if m == nil {
		return
	}
	if !success {
		m.UploadsTotal.WithLabelValues("rejected").Inc()
		return
	}
	m.UploadsTotal.WithLabelValues("success").Inc()
	m.TasksDistributed.Add(float64(tasks))
}

// RecordTaskTransition counts a completion or reopening.
func (m *Metrics) RecordTaskTransition(status string) {
	if m == nil {
		return
	}
	m.TaskTransitions.WithLabelValues(status).Inc()
}

// RecordLoginAttempt increments login attempts counter.
func (m *Metrics) RecordLoginAttempt(role string, success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.LoginAttempts.WithLabelValues(role, status).Inc()
}

// RecordCache counts an analytics cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}
