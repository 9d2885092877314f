package cart

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelOp     = "op"
	labelResult = "result"

	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "persist_error"
)

type Metrics struct {
	Mutations       *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistLatency  prometheus.Histogram
	Lines           prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_mutations_total",
				Help: "Cart mutations by operation and result",
			},
			[]string{labelOp, labelResult},
		),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_persist_failures_total",
			Help: "Snapshot writes rejected by the store",
		}),
		PersistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cart_persist_duration_seconds",
			Help: "Snapshot write latency",
		}),
		Lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_lines",
			Help: "Distinct items currently in the cart",
		}),
	}

	reg.MustRegister(m.Mutations, m.PersistFailures, m.PersistLatency, m.Lines)
	return m
}

func (m *Metrics) mutation(op, result string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) lines(n int) {
	if m == nil {
		return
	}
	m.Lines.Set(float64(n))
}

func (m *Metrics) persistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) observePersist(seconds float64) {
	if m == nil {
		return
	}
	m.PersistLatency.Observe(seconds)
}
