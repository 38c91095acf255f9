// Package metrics exposes the engine loop counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weatherflux"

// Drop and unsent reasons used as label values.
const (
	ReasonMalformed   = "malformed"
	ReasonFiltered    = "filtered"
	ReasonUnknownType = "unknown_type"
	ReasonNoSink      = "no_sink"
	ReasonWriteError  = "write_error"
)

type Metrics struct {
	registry *prometheus.Registry

	MessagesProcessed prometheus.Counter
	MessagesDropped   *prometheus.CounterVec
	RecordsSent       prometheus.Counter
	RecordsUnsent     *prometheus.CounterVec
	DevicesDiscovered prometheus.Counter
	FormatWarnings    prometheus.Counter
	ConfigReloads     *prometheus.CounterVec
}

// New registers every metric on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "processed_total",
			Help:      "Total number of messages fully processed",
		}),

		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "dropped_total",
			Help:      "Total number of messages dropped before formatting",
		}, []string{"reason"}),

		RecordsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "sent_total",
			Help:      "Total number of records accepted by the sink",
		}),

		RecordsUnsent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "unsent_total",
			Help:      "Total number of records that could not be written",
		}, []string{"reason"}),

		DevicesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devices",
			Name:      "discovered_total",
			Help:      "Total number of distinct devices heard since start",
		}),

		FormatWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "warnings_total",
			Help:      "Total number of data-format warnings raised while formatting",
		}),

		ConfigReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "reloads_total",
			Help:      "Total number of configuration reload attempts",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.MessagesProcessed,
		m.MessagesDropped,
		m.RecordsSent,
		m.RecordsUnsent,
		m.DevicesDiscovered,
		m.FormatWarnings,
		m.ConfigReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
