package rollgate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors the background workers and
// the client facade report against. A nil *Metrics is valid and every
// method on it is a no-op, so callers that never opt into a registry
// pay no cost.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	eventsDropped   prometheus.Counter
	eventsFlushed   prometheus.Counter
	deadFlag        prometheus.Gauge
	streamConnected prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetrics builds a Metrics instance and registers its collectors
// with reg. Passing prometheus.NewRegistry() isolates a client's
// metrics from the global default registry so multiple clients in the
// same process never collide on metric names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rollgate",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests made by the SDK, by worker and outcome.",
		}, []string{"worker", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rollgate",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by worker.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"worker"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollgate",
			Name:      "events_dropped_total",
			Help:      "Events dropped because the event buffer was full.",
		}),
		eventsFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollgate",
			Name:      "events_flushed_total",
			Help:      "Events successfully delivered to the events endpoint.",
		}),
		deadFlag: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rollgate",
			Name:      "dead",
			Help:      "1 when the client has latched dead after an authentication failure, else 0.",
		}),
		streamConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rollgate",
			Name:      "stream_connected",
			Help:      "1 when the streaming worker currently holds an open connection, else 0.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollgate",
			Name:      "cache_hits_total",
			Help:      "Times the local fallback cache served a snapshot, at construction or after a failed fetch.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollgate",
			Name:      "cache_misses_total",
			Help:      "Times the local fallback cache had nothing to serve, at construction or after a failed fetch.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.requestsTotal, m.requestLatency, m.eventsDropped, m.eventsFlushed,
			m.deadFlag, m.streamConnected, m.cacheHits, m.cacheMisses,
		)
	}
	return m
}

func (m *Metrics) observeRequest(worker, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(worker, outcome).Inc()
	m.requestLatency.WithLabelValues(worker).Observe(seconds)
}

func (m *Metrics) recordEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

func (m *Metrics) recordEventsFlushed(n int) {
	if m == nil {
		return
	}
	m.eventsFlushed.Add(float64(n))
}

func (m *Metrics) setDead(dead bool) {
	if m == nil {
		return
	}
	if dead {
		m.deadFlag.Set(1)
	} else {
		m.deadFlag.Set(0)
	}
}

func (m *Metrics) setStreamConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.streamConnected.Set(1)
	} else {
		m.streamConnected.Set(0)
	}
}

func (m *Metrics) recordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) recordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
