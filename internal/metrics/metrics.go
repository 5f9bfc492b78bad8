package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
)

const namespace = "econext"

// Refresh and write results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the collectors for one controller.
type Metrics struct {
	registry *prometheus.Registry
	entities *entity.Index

	refreshes       *prometheus.CounterVec
	refreshFailures *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	up              prometheus.Gauge
	paramCount      prometheus.Gauge
	writes          *prometheus.CounterVec
	entityValue     *prometheus.GaugeVec
}

// New creates and registers the collectors. entities may be nil when
// entity gauges are not wanted.
func New(entities *entity.Index) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entities: entities,
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Full parameter fetches by result",
			},
			[]string{"result"},
		),
		refreshFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_failures_total",
				Help:      "Failed parameter fetches by error kind",
			},
			[]string{"kind"},
		),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful fetch",
		}),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "1 if the last fetch succeeded",
		}),
		paramCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parameters",
			Help:      "Parameters in the current snapshot",
		}),
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_total",
				Help:      "Parameter writes sent to the controller by result",
			},
			[]string{"result"},
		),
		entityValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "entity_value",
				Help:      "Current numeric value of each entity",
			},
			[]string{"key", "device"},
		),
	}

	m.registry.MustRegister(
		m.refreshes,
		m.refreshFailures,
		m.lastSuccess,
		m.up,
		m.paramCount,
		m.writes,
		m.entityValue,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HandleUpdate is registered as a coordinator listener.
func (m *Metrics) HandleUpdate(u coordinator.Update) {
	if !u.Patched {
		if u.Success {
			m.refreshes.WithLabelValues(ResultSuccess).Inc()
			m.up.Set(1)
			m.lastSuccess.Set(float64(u.At.Unix()))
			m.paramCount.Set(float64(u.Snapshot.Len()))
		} else {
			m.refreshes.WithLabelValues(ResultFailure).Inc()
			m.refreshFailures.WithLabelValues(econext.ErrorKind(u.Err)).Inc()
			m.up.Set(0)
		}
	}
	m.updateEntities()
}

func (m *Metrics) updateEntities() {
	if m.entities == nil {
		return
	}
	for _, e := range m.entities.All() {
		labels := prometheus.Labels{"key": e.Key(), "device": string(e.Device())}
		if v, ok := entity.NumericValue(e); ok {
			m.entityValue.With(labels).Set(v)
		} else {
			m.entityValue.Delete(labels)
		}
	}
}

// ObserveWrite counts one parameter write.
func (m *Metrics) ObserveWrite(err error) {
	if err != nil {
		m.writes.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.writes.WithLabelValues(ResultSuccess).Inc()
}

// SetEntities replaces the index used for entity gauges.
func (m *Metrics) SetEntities(entities *entity.Index) {
	m.entities = entities
}

// instrumentedSource counts writes passing through an entity source.
type instrumentedSource struct {
	entity.Source
	m *Metrics
}

// InstrumentSource wraps src so every Set is counted in writes_total.
func (m *Metrics) InstrumentSource(src entity.Source) entity.Source {
	return &instrumentedSource{Source: src, m: m}
}

func (s *instrumentedSource) Set(ctx context.Context, id string, value econext.Value) error {
	err := s.Source.Set(ctx, id, value)
	s.m.ObserveWrite(err)
	return err
}
