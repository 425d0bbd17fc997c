package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

const namespace = "erp_portal"

// Metrics owns the service's Prometheus registry and collectors
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	domainEvents *prometheus.CounterVec
	rateLimited  prometheus.Counter
	feedClients  prometheus.GaugeFunc
}

// New creates a registry with HTTP and domain collectors. clientCount, when
// non-nil, is exported as the number of connected moderation feed clients.
func New(clientCount func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Moderation events by type.",
		}, []string{"type"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.inFlight,
		m.domainEvents,
		m.rateLimited,
	)

	if clientCount != nil {
		m.feedClients = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_clients",
			Help:      "Connected moderation feed clients.",
		}, func() float64 { return float64(clientCount()) })
		m.registry.MustRegister(m.feedClients)
	}

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request in flight.
func (m *Metrics) RequestStarted() {
	m.inFlight.Inc()
}

// ObserveRequest records a finished request. route is the matched route
// template so ids do not explode label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.inFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Publish counts a moderation event.
func (m *Metrics) Publish(event websocket.Event) {
	m.domainEvents.WithLabelValues(event.Type).Inc()
}
