package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studysync"

// Metrics holds the collectors recorded by request actions
type Metrics struct {
	Actions        *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	AIRequests     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers all collectors on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of request actions by outcome",
			},
			[]string{"action", "outcome"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of request actions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		AIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ai",
				Name:      "requests_total",
				Help:      "Total number of generative model calls by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.Actions,
		m.ActionDuration,
		m.AIRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveAction records one finished action. An empty outcome means success.
func (m *Metrics) ObserveAction(action, outcome string, started time.Time) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "success"
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveAI(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.AIRequests.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
