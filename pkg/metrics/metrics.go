// Package metrics exposes engine activity as Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/notify"
)

// Metrics implements engine.Observer. It owns a private registry so several
// dashboards (or tests) never collide on registration.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	leadsReturned prometheus.Counter
	exports       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospect_requests_total",
			Help: "Engine requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospect_notifications_total",
			Help: "Notifications shown to the user by variant.",
		}, []string{"variant"}),
		leadsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prospect_leads_returned_total",
			Help: "Leads received in committed search pages.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospect_exports_submitted_total",
			Help: "Export jobs accepted by the service by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.notifications,
		m.leadsReturned,
		m.exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RequestFinished(kind engine.RequestKind, outcome engine.Outcome) {
	m.requests.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (m *Metrics) SearchCommitted(_ leads.FilterSelection, page leads.SearchResultPage) {
	m.leadsReturned.Add(float64(len(page.Leads)))
}

func (m *Metrics) ExportSubmitted(_ string, job leads.ExportJob) {
	m.exports.WithLabelValues(string(job.Format)).Inc()
}

// Sink counts notifications before passing them to next.
func (m *Metrics) Sink(next notify.Sink) notify.Sink {
	return notify.SinkFunc(func(n notify.Notification) {
		m.notifications.WithLabelValues(string(n.Variant)).Inc()
		if next != nil {
			next.Toast(n)
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
