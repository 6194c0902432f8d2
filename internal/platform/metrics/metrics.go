package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ExpedientesCreated prometheus.Counter
	Transitions        *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	IndiciosCreated    prometheus.Counter
	LoginFailures      prometheus.Counter
	Lockouts           prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ExpedientesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expedientes_created_total",
			Help: "Total number of expedientes created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "expedientes_transitions_total",
			Help: "State transitions applied to expedientes, by destination estado",
		}, []string{"estado"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "expedientes_decisions_total",
			Help: "Coordinator decisions recorded, by accion",
		}, []string{"accion"}),
		IndiciosCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expedientes_indicios_created_total",
			Help: "Total number of indicios created",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expedientes_login_failures_total",
			Help: "Failed login attempts",
		}),
		Lockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expedientes_login_lockouts_total",
			Help: "Login lockouts triggered",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expedientes_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveTransition records a state transition to the given destination estado.
func (m *Metrics) ObserveTransition(estado string) {
	m.Transitions.WithLabelValues(estado).Inc()
}

// ObserveDecision records a coordinator decision.
func (m *Metrics) ObserveDecision(accion string) {
	m.Decisions.WithLabelValues(accion).Inc()
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}
