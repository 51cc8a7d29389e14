// Package metrics holds the Prometheus collectors of the service.
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

const namespace = "chantabs"

// Metrics holds all collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Sessions
	SessionsActive  prometheus.Gauge
	SessionsEvicted *prometheus.CounterVec

	// Persistence
	PersistWrites    *prometheus.CounterVec
	PersistDuration  *prometheus.HistogramVec
	PersistCoalesced prometheus.Counter

	// Event streams
	StreamsActive prometheus.Gauge
	EventsDropped prometheus.Counter

	// Seed file
	SeedEntries prometheus.Gauge
}

// New builds the collectors. Go runtime and process collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),

		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of users with live tab and bookmark sessions",
		}),
		SessionsEvicted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_evicted_total",
				Help:      "Sessions dropped from memory, by reason",
			},
			[]string{"reason"},
		),

		PersistWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_writes_total",
				Help:      "State writes handed to the store",
			},
			[]string{"kind", "result"},
		),
		PersistDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_write_duration_seconds",
				Help:      "Store write latency in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
			},
			[]string{"kind"},
		),
		PersistCoalesced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_coalesced_total",
			Help:      "Queued writes replaced by a newer snapshot before reaching the store",
		}),

		StreamsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_streams_active",
			Help:      "Open server-sent event streams",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events not delivered because a stream buffer was full",
		}),

		SeedEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seed_entries",
			Help:      "Top-level entries in the bookmark seed",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObservePersist records one store write. err == nil counts as success.
func (m *Metrics) ObservePersist(kind string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PersistWrites.WithLabelValues(kind, result).Inc()
	m.PersistDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Coalesced records a queued write superseded by a newer one.
func (m *Metrics) Coalesced() { m.PersistCoalesced.Inc() }

// Evicted records sessions dropped for reason ("logout", "idle").
func (m *Metrics) Evicted(reason string, n int) {
	m.SessionsEvicted.WithLabelValues(reason).Add(float64(n))
}

// StreamOpened and StreamClosed track live event streams.
func (m *Metrics) StreamOpened() { m.StreamsActive.Inc() }
func (m *Metrics) StreamClosed() { m.StreamsActive.Dec() }

// Dropped records an event a slow stream missed.
func (m *Metrics) Dropped() { m.EventsDropped.Inc() }
