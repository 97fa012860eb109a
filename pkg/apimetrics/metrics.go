// Package apimetrics defines the Prometheus collectors C11 exposes on
// /metrics, with names fixed for scraper compatibility.
// Grounded on the teacher's pkg/gateway/metrics
// NewMetricsWithRegistry(registry) pattern so tests can use an isolated
// registry instead of the global default.
package apimetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors registered on a single prometheus.Registerer.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	LatencySeconds *prometheus.HistogramVec
	CacheHitsTotal prometheus.Counter
	CacheMissesTotal prometheus.Counter
	ActiveConnections prometheus.Gauge
}

// New registers collectors on the global default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors on reg, allowing test isolation.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_requests_total",
			Help: "Total requests handled by the meta-router, labeled by service, intent, and status.",
		}, []string{"service", "intent", "status"}),
		LatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "router_latency_seconds",
			Help: "Request handling latency in seconds, labeled by service and intent.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "intent"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_cache_hits_total",
			Help: "Total intent classification cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_cache_misses_total",
			Help: "Total intent classification cache misses.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "router_active_connections",
			Help: "Current number of active WebSocket subscriber connections.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.LatencySeconds, m.CacheHitsTotal, m.CacheMissesTotal, m.ActiveConnections)
	return m
}
