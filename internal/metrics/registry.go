// Package metrics implements the Prometheus-backed metrics registry: one
// struct bundling the execution counters, constructed once at startup and
// exposed as a text-exposition endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FailureReason is one of the fixed label values for
// plugin_execution_failures_total.
type FailureReason string

const (
	ReasonInstanceLimit  FailureReason = "instance_limit"
	ReasonExecutionError FailureReason = "execution_error"
	ReasonTimeout        FailureReason = "timeout"
)

// Registry is the process-wide, lock-free (by virtue of using
// prometheus/client_golang's own atomic counters) metrics singleton.
type Registry struct {
	executionsTotal  *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	durationSeconds  prometheus.Histogram
	activeInstances  prometheus.Gauge
	reg              *prometheus.Registry
}

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// New registers every metric against a fresh registry (not the global
// default one, so tests can construct independent registries without
// collector-already-registered panics).
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		executionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "plugin_executions_total",
			Help: "Total number of plugin executions by status.",
		}, []string{"status"}),
		failuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "plugin_execution_failures_total",
			Help: "Total number of failed plugin executions by reason.",
		}, []string{"reason"}),
		durationSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "plugin_execution_duration_seconds",
			Help:    "Duration of plugin executions in seconds.",
			Buckets: durationBuckets,
		}),
		activeInstances: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "active_plugin_instances",
			Help: "Number of currently active plugin instances.",
		}),
	}
	return r
}

// RecordSuccess records a completed, successful invocation.
func (r *Registry) RecordSuccess(durationSeconds float64) {
	r.executionsTotal.WithLabelValues("success").Inc()
	r.durationSeconds.Observe(durationSeconds)
}

// RecordFailure records a completed-but-failed invocation. instance_limit
// rejections and transport-layer failures do not carry a duration sample:
// only invocations that actually reached the executor get one.
func (r *Registry) RecordFailure(reason FailureReason, durationSeconds float64, observeDuration bool) {
	r.failuresTotal.WithLabelValues(string(reason)).Inc()
	if observeDuration {
		r.durationSeconds.Observe(durationSeconds)
	}
}

// SetActiveInstances mirrors process.InstanceGate's atomic counter into the
// gauge. The gate calls it after every acquire and after every release.
func (r *Registry) SetActiveInstances(n int64) {
	r.activeInstances.Set(float64(n))
}

// Handler returns the GET /metrics endpoint: textual Prometheus exposition
// of everything registered above, touching no request state.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
