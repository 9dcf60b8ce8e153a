// Package metrics exposes Prometheus collectors for the consent lifecycle
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

const namespace = "consent"

// Collectors holds every metric the service publishes, registered on its
// own registry. The recording methods are no-ops on a nil *Collectors.
type Collectors struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	expired     *prometheus.CounterVec
	sweeps      *prometheus.CounterVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates and registers the collectors, plus the Go runtime and process
// collectors.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_transitions_total",
			Help:      "Consent record state changes by operation and resulting status.",
		}, []string{"action", "status"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_expired_total",
			Help:      "Consent records moved to expired, by previous status.",
		}, []string{"from"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Expiry sweep runs by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.transitions, c.expired, c.sweeps, c.requests, c.latency,
	)
	return c
}

// Transition counts one record state change.
func (c *Collectors) Transition(action string, to domain.RecordStatus) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(action, string(to)).Inc()
}

// Expired counts n records expired from status from.
func (c *Collectors) Expired(from domain.RecordStatus, n int) {
	if c == nil {
		return
	}
	c.expired.WithLabelValues(string(from)).Add(float64(n))
}

// Sweep counts one sweeper tick. Outcome is "ok", "error" or "skipped".
func (c *Collectors) Sweep(outcome string) {
	if c == nil {
		return
	}
	c.sweeps.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (c *Collectors) ObserveHTTP(method, route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}
