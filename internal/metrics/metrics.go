// Package metrics holds the prometheus instruments of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every instrument. A nil *Metrics is valid and records nothing,
// so components can be built without a registry in tests.
type Metrics struct {
	registry prometheus.Gatherer

	MappingsTotal          *prometheus.CounterVec
	ResolutionsTotal       *prometheus.CounterVec
	ConnectAttemptsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	CacheLookupsTotal      *prometheus.CounterVec
	RateLimitedTotal       prometheus.Counter
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MappingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortener_mappings_total",
				Help: "Shorten calls by outcome (created or existing)",
			},
			[]string{"status"},
		),
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortener_resolutions_total",
				Help: "Resolve calls by result",
			},
			[]string{"result"},
		),
		ConnectAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_connect_attempts_total",
				Help: "Store connection attempts by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		StoreOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"backend", "operation", "class"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_lookups_total",
				Help: "Read cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Mapping(status string) {
	if m == nil {
		return
	}

	m.MappingsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) Resolution(result string) {
	if m == nil {
		return
	}

	m.ResolutionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ConnectAttempt(backend, outcome string) {
	if m == nil {
		return
	}

	m.ConnectAttemptsTotal.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) StoreOperation(backend, operation, class string, d time.Duration) {
	if m == nil {
		return
	}

	m.StoreOperationDuration.WithLabelValues(backend, operation, class).Observe(d.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}

	m.RateLimitedTotal.Inc()
}

func (m *Metrics) HTTPRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}

	m.HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
