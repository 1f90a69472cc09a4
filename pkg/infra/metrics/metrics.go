// Package metrics exposes processing counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/m-mizutani/itsgate/pkg/domain/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements interfaces.Metrics on its own registry
type Prometheus struct {
	registry *prometheus.Registry

	eventsReceived *prometheus.CounterVec
	eventsIgnored  *prometheus.CounterVec
	actionsRun     *prometheus.CounterVec
	actionsFailed  *prometheus.CounterVec
}

// New creates the counters and registers them together with the Go runtime collectors
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		eventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: types.ServiceName,
			Name:      "events_received_total",
			Help:      "Repository events received, by event type.",
		}, []string{"event_type"}),
		eventsIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: types.ServiceName,
			Name:      "events_ignored_total",
			Help:      "Repository events not processed, by event type and reason.",
		}, []string{"event_type", "reason"}),
		actionsRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: types.ServiceName,
			Name:      "actions_executed_total",
			Help:      "Action requests executed, by action name and scope.",
		}, []string{"action", "scope"}),
		actionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: types.ServiceName,
			Name:      "actions_failed_total",
			Help:      "Action requests that failed, by action name and scope.",
		}, []string{"action", "scope"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.eventsReceived,
		p.eventsIgnored,
		p.actionsRun,
		p.actionsFailed,
	)
	return p
}

func (p *Prometheus) EventReceived(kind string) {
	p.eventsReceived.WithLabelValues(kind).Inc()
}

func (p *Prometheus) EventIgnored(kind, reason string) {
	p.eventsIgnored.WithLabelValues(kind, reason).Inc()
}

func (p *Prometheus) ActionExecuted(name, scope string) {
	p.actionsRun.WithLabelValues(name, scope).Inc()
}

func (p *Prometheus) ActionFailed(name, scope string) {
	p.actionsFailed.WithLabelValues(name, scope).Inc()
}

// Handler serves the registry for scraping
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
