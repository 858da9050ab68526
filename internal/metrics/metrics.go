// Package metrics provides Prometheus metrics for the voice diary service.
//
// A nil *Manager is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// Manager owns the service's collectors.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	classifications *prometheus.CounterVec
	assessments     *prometheus.CounterVec
	aggregations    *prometheus.CounterVec
	quarantined     prometheus.Counter
	recordings      *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	externalCalls        *prometheus.CounterVec
	externalCallDuration *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec
}

// NewManager creates a manager on a fresh registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "voice_diary",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "classifications_total",
		Help:      "VAD classifications by resulting emotion",
	}, []string{"emotion"})

	m.assessments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "assessments_total",
		Help:      "Significance assessments by outcome",
	}, []string{"significant"})

	m.aggregations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "daily_aggregations_total",
		Help:      "Daily aggregations by result (present or absent)",
	}, []string{"result"})

	m.quarantined = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "quarantined_labels_total",
		Help:      "Segment labels from the analyzer that were not recognised",
	})

	m.recordings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "recordings_total",
		Help:      "Processed recordings by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.externalCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "external",
		Name:      "calls_total",
		Help:      "Calls to external services by client, operation and outcome",
	}, []string{"client", "operation", "outcome"})

	m.externalCallDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "external",
		Name:      "call_duration_seconds",
		Help:      "Latency of calls to external services",
		Buckets:   m.histogramBuckets,
	}, []string{"client", "operation"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Summary cache lookups by result",
	}, []string{"result"})
}

// Registry returns the registry backing the manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveClassification counts one Classify result.
func (m *Manager) ObserveClassification(e emotion.Emotion) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(e.String()).Inc()
}

// ObserveAssessment counts one Assess result.
func (m *Manager) ObserveAssessment(a emotion.Assessment) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(strconv.FormatBool(a.Significant)).Inc()
}

// ObserveAggregation counts one Aggregate call.
func (m *Manager) ObserveAggregation(present bool) {
	if m == nil {
		return
	}
	result := "absent"
	if present {
		result = "present"
	}
	m.aggregations.WithLabelValues(result).Inc()
}

// ObserveQuarantined counts unrecognised segment labels.
func (m *Manager) ObserveQuarantined(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.quarantined.Add(float64(n))
}

// ObserveRecording counts a processed recording by outcome, e.g. "ok", "limit", "error".
func (m *Manager) ObserveRecording(outcome string) {
	if m == nil {
		return
	}
	m.recordings.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveExternalCall records a call to an external service.
func (m *Manager) ObserveExternalCall(client, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.externalCalls.WithLabelValues(client, operation, outcome).Inc()
	m.externalCallDuration.WithLabelValues(client, operation).Observe(elapsed.Seconds())
}

// ObserveCache records a cache lookup.
func (m *Manager) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
