package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results recorded by the services.
const (
	ResultApplied  = "applied"
	ResultIgnored  = "ignored"
	ResultInserted = "inserted"
)

// Metrics holds the collectors of the application on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	sessions   prometheus.Gauge
	reports    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "operations_total",
			Help:      "Task and category operations by kind and result.",
		}, []string{"op", "result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskboard",
			Name:      "sessions",
			Help:      "Chats with an open task list.",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "reports_sent_total",
			Help:      "Periodic summaries by delivery status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.operations,
		m.sessions,
		m.reports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Op counts one operation. A nil receiver is a no-op so callers can run without metrics.
func (m *Metrics) Op(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// OpBool is Op with applied/ignored derived from ok.
func (m *Metrics) OpBool(op string, ok bool) {
	if ok {
		m.Op(op, ResultApplied)
		return
	}
	m.Op(op, ResultIgnored)
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func (m *Metrics) Report(status string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(status).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
