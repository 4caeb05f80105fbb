// Package metrics provides Prometheus instrumentation: operation counts,
// durations and error counts labelled by subsystem. The render, pluginscan
// and playback packages do not record into it themselves; cmd/wavecraft
// feeds error counts into it from the error event bus. Grounded on the host's operation/duration/error Recorder
// contract, implemented here against real collectors instead of a test
// double.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder is the instrumentation surface (used by cmd/wavecraft's
// metricsConsumer). operation identifies the subsystem (e.g. "render",
// "plugin_scan"); status/errorType are short, low-cardinality labels.
type Recorder interface {
	RecordOperation(operation, status string)
	RecordDuration(operation string, seconds float64)
	RecordError(operation, errorType string)
}

// PrometheusRecorder implements Recorder against three collectors
// registered on a caller-supplied registry.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

// NewPrometheusRecorder creates and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests to avoid cross-test collisions.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavecraft",
			Name:      "operations_total",
			Help:      "Count of completed operations by subsystem and status.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wavecraft",
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations by subsystem.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavecraft",
			Name:      "operation_errors_total",
			Help:      "Count of operation errors by subsystem and error type.",
		}, []string{"operation", "error_type"}),
	}
	reg.MustRegister(r.operations, r.durations, r.errors)
	return r
}

// RecordOperation increments the operations counter for operation/status.
func (r *PrometheusRecorder) RecordOperation(operation, status string) {
	r.operations.WithLabelValues(operation, status).Inc()
}

// RecordDuration observes seconds into the operation's duration histogram.
func (r *PrometheusRecorder) RecordDuration(operation string, seconds float64) {
	r.durations.WithLabelValues(operation).Observe(seconds)
}

// RecordError increments the errors counter for operation/errorType.
func (r *PrometheusRecorder) RecordError(operation, errorType string) {
	r.errors.WithLabelValues(operation, errorType).Inc()
}

// NoopRecorder discards everything, for use where no registry is configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordOperation(string, string)  {}
func (NoopRecorder) RecordDuration(string, float64)  {}
func (NoopRecorder) RecordError(string, string)      {}
