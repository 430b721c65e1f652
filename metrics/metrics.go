// Package metrics exposes the framework's request/connection/panic counters
// and latency histogram as Prometheus collectors.
//
// Grounded on the teacher's server package (connection-count tracking in
// server/run.go's handleConnWithTracking) generalized from an atomic int64
// counter to a Prometheus metric family, and on rivaas-dev-rivaas's
// metrics.Recorder (functional-option construction, a dedicated registry
// per instance instead of the global default, Handler() exposing the
// scrape endpoint) adapted from its OpenTelemetry/Prometheus-exporter
// bridge down to prometheus/client_golang directly.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private Prometheus registry and the framework's built-in
// collectors, so multiple Recorders (e.g. in tests) never collide on the
// global default registry.
type Recorder struct {
	registry *prometheus.Registry

	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	panicsTotal       prometheus.Counter
}

// New builds a Recorder with its own registry and registers the built-in
// collectors on it.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kestrel_connections_active",
			Help: "Number of currently open connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kestrel_connections_total",
			Help: "Total connections accepted.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kestrel_requests_total",
			Help: "Total requests served, labeled by status code.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kestrel_request_duration_seconds",
			Help:    "Request handling latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		panicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kestrel_panics_total",
			Help: "Total panics recovered by the panic bridge.",
		}),
	}
	reg.MustRegister(r.connectionsActive, r.connectionsTotal, r.requestsTotal, r.requestDuration, r.panicsTotal)
	return r
}

// Handler returns the Prometheus scrape endpoint for this Recorder's
// registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ConnectionOpened increments the active/total connection gauges; call it
// from a server's accept loop.
func (r *Recorder) ConnectionOpened() {
	r.connectionsActive.Inc()
	r.connectionsTotal.Inc()
}

// ConnectionClosed decrements the active connection gauge.
func (r *Recorder) ConnectionClosed() {
	r.connectionsActive.Dec()
}

// ObserveRequest records one completed request's status code and handling
// duration.
func (r *Recorder) ObserveRequest(status int, d time.Duration) {
	label := statusLabel(status)
	r.requestsTotal.WithLabelValues(label).Inc()
	r.requestDuration.WithLabelValues(label).Observe(d.Seconds())
}

// PanicRecovered increments the panic counter; call it from a PanicHandler.
func (r *Recorder) PanicRecovered() {
	r.panicsTotal.Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
