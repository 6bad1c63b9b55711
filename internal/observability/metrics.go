package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Escalation sources.
const (
	EscalationAuto   = "auto"
	EscalationManual = "manual"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	errors            *prometheus.CounterVec
	intakes           *prometheus.CounterVec
	escalations       *prometheus.CounterVec
	statusChanges     *prometheus.CounterVec
	responderFailures prometheus.Counter
	responderLatency  prometheus.Histogram
}

// NewMetrics registers collectors on reg. Pass a fresh registry in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "support_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_errors_total",
			Help: "Errors returned to clients by code",
		}, []string{"code"}),
		intakes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_intakes_total",
			Help: "Inbound customer messages accepted per channel",
		}, []string{"channel"}),
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_escalations_total",
			Help: "Tickets moved to in_progress by escalation source",
		}, []string{"source"}),
		statusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "support_ticket_status_changes_total",
			Help: "Ticket status transitions",
		}, []string{"from", "to"}),
		responderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "support_responder_failures_total",
			Help: "AI responder calls that failed",
		}),
		responderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "support_responder_latency_seconds",
			Help:    "AI responder call latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(code).Inc()
}

// RecordIntake counts an accepted inbound message.
func (m *Metrics) RecordIntake(channel string) {
	if m == nil {
		return
	}
	m.intakes.WithLabelValues(channel).Inc()
}

// RecordEscalation counts a ticket entering in_progress.
func (m *Metrics) RecordEscalation(source string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(source).Inc()
}

// RecordStatusChange counts a lifecycle transition.
func (m *Metrics) RecordStatusChange(from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(from, to).Inc()
}

// ObserveResponder records one AI responder call.
func (m *Metrics) ObserveResponder(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.responderLatency.Observe(duration.Seconds())
	if err != nil {
		m.responderFailures.Inc()
	}
}
