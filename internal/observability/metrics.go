package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	procedureCalls    *prometheus.CounterVec
	procedureDuration *prometheus.HistogramVec
	usersRegistered   prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "user_registry_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		procedureCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "user_registry_procedure_calls_total",
			Help: "Procedure calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		procedureDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "user_registry_procedure_duration_seconds",
			Help:    "Procedure latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		usersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "user_registry_users_registered_total",
			Help: "Users successfully registered.",
		}),
	}
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts a served HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// RecordProcedure counts a procedure call with its result code ("OK" on success).
func (m *Metrics) RecordProcedure(procedure, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.procedureCalls.WithLabelValues(procedure, code).Inc()
	m.procedureDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// IncUsersRegistered increments the registered users counter.
func (m *Metrics) IncUsersRegistered() {
	if m == nil {
		return
	}
	m.usersRegistered.Inc()
}
