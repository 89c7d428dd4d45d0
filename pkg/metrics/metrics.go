// Package metrics collects Prometheus metrics for counsel pages.
//
// Metrics collected:
//   - counsel_events_total: Counter of page events by page, event and status
//   - counsel_event_duration_seconds: Histogram of event handling duration
//   - counsel_submissions_total: Counter of settled submissions by page and outcome
//   - counsel_submission_duration_seconds: Histogram of time spent busy
//   - counsel_validation_failures_total: Counter of blocked submissions by page and rule
//   - counsel_toasts_total: Counter of notifications shown by kind
//   - counsel_active_sessions: Gauge of live sessions
//   - counsel_websocket_errors_total: Counter of WebSocket errors by type
//
// Example:
//
//	m := metrics.New(metrics.WithNamespace("portal"))
//	r.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/counsel/internal/errors"
)

// Config configures the metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "counsel").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "counsel",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records page activity. A nil *Metrics records nothing, so
// controllers can run without a registry.
type Metrics struct {
	eventsTotal        *prometheus.CounterVec
	eventDuration      *prometheus.HistogramVec
	submissionsTotal   *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	toastsTotal        *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// New registers the metrics with the configured registry.
// Registering twice on the same registry panics, as with promauto.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of page events processed",
			ConstLabels: config.ConstLabels,
		}, []string{"page", "event", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Page event handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"page"}),

		submissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submissions_total",
			Help:        "Total number of settled submissions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"page", "outcome"}),

		submissionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submission_duration_seconds",
			Help:        "Time a submit control stayed busy in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"page"}),

		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "validation_failures_total",
			Help:        "Total submissions blocked by validation",
			ConstLabels: config.ConstLabels,
		}, []string{"page", "rule"}),

		toastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_total",
			Help:        "Total notifications shown by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live page sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// RecordEvent records a handled page event.
func (m *Metrics) RecordEvent(page, event string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.eventDuration.WithLabelValues(page).Observe(d.Seconds())
	m.eventsTotal.WithLabelValues(page, event, status(err)).Inc()
}

// RecordSubmission records a settled submission. outcome is one of
// success, failure or timeout.
func (m *Metrics) RecordSubmission(page, outcome string, busy time.Duration) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(page, outcome).Inc()
	m.submissionDuration.WithLabelValues(page).Observe(busy.Seconds())
}

// RecordValidationFailure records a submission blocked by validation.
func (m *Metrics) RecordValidationFailure(page, rule string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(page, rule).Inc()
}

// RecordToast records a shown notification.
func (m *Metrics) RecordToast(kind string) {
	if m == nil {
		return
	}
	m.toastsTotal.WithLabelValues(kind).Inc()
}

// RecordSessionCreate records a new live session.
func (m *Metrics) RecordSessionCreate() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// RecordSessionDestroy records the end of a live session.
func (m *Metrics) RecordSessionDestroy() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m == nil {
		return
	}
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// status maps an error to a low-cardinality label: its error category, or
// "internal" for uncoded errors.
func status(err error) string {
	if err == nil {
		return "success"
	}
	for _, c := range []errors.Category{
		errors.CategoryValidation,
		errors.CategoryTransport,
		errors.CategoryDOM,
		errors.CategoryConfig,
	} {
		if errors.IsCategory(err, c) {
			return string(c)
		}
	}
	return "internal"
}
