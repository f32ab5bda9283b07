package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine operations by outcome.
type Metrics struct {
	ops     *prometheus.CounterVec
	upvotes prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "naagrik",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engagement operations by name and outcome.",
		}, []string{"op", "outcome"}),
		upvotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "naagrik",
			Subsystem: "engine",
			Name:      "upvotes_total",
			Help:      "Upvotes applied to issues.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.upvotes)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) upvoted() {
	if m == nil {
		return
	}
	m.upvotes.Inc()
}
