// Package metrics exposes Prometheus collectors for topology mutations.
//
// A nil *Metrics is valid and records nothing, so the engine can call it
// unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated by the engine.
type Metrics struct {
	NodesCreated  *prometheus.CounterVec
	NodesRemoved  prometheus.Counter
	LinksCreated  prometheus.Counter
	LinksRejected *prometheus.CounterVec
	LinksReleased prometheus.Counter
	Nodes         prometheus.Gauge
	Links         prometheus.Gauge
	LoadDuration  prometheus.Histogram
	LoadSkipped   prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataflow_nodes_created_total",
			Help: "Total number of nodes created, labelled by node kind.",
		}, []string{"kind"}),
		NodesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataflow_nodes_removed_total",
			Help: "Total number of nodes removed.",
		}),
		LinksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataflow_links_created_total",
			Help: "Total number of connections established.",
		}),
		LinksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataflow_links_rejected_total",
			Help: "Total number of connection attempts that were not established, labelled by reason.",
		}, []string{"reason"}),
		LinksReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataflow_links_released_total",
			Help: "Total number of connections released.",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataflow_nodes",
			Help: "Current number of nodes in the graph.",
		}),
		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataflow_links",
			Help: "Current number of live connections in the graph.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataflow_load_duration_seconds",
			Help:    "Duration of whole-graph restores.",
			Buckets: prometheus.DefBuckets,
		}),
		LoadSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataflow_load_skipped_entries_total",
			Help: "Total number of persisted nodes or links skipped during restore.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.NodesCreated, m.NodesRemoved,
			m.LinksCreated, m.LinksRejected, m.LinksReleased,
			m.Nodes, m.Links,
			m.LoadDuration, m.LoadSkipped,
		)
	}
	return m
}

// NodeCreated records a created node of the given kind.
func (m *Metrics) NodeCreated(kind string) {
	if m == nil {
		return
	}
	m.NodesCreated.WithLabelValues(kind).Inc()
}

// NodeRemoved records a removed node.
func (m *Metrics) NodeRemoved() {
	if m == nil {
		return
	}
	m.NodesRemoved.Inc()
}

// LinkCreated records an established connection.
func (m *Metrics) LinkCreated() {
	if m == nil {
		return
	}
	m.LinksCreated.Inc()
}

// LinkRejected records a connection attempt that was not established.
func (m *Metrics) LinkRejected(reason string) {
	if m == nil {
		return
	}
	m.LinksRejected.WithLabelValues(reason).Inc()
}

// LinksReleasedN records n released connections.
func (m *Metrics) LinksReleasedN(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksReleased.Add(float64(n))
}

// Observe sets the size gauges.
func (m *Metrics) Observe(nodes, links int) {
	if m == nil {
		return
	}
	m.Nodes.Set(float64(nodes))
	m.Links.Set(float64(links))
}

// Loaded records a restore that took d and skipped entries.
func (m *Metrics) Loaded(d time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(d.Seconds())
	if skipped > 0 {
		m.LoadSkipped.Add(float64(skipped))
	}
}
