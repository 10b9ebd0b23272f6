package compose

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a registry. A nil *Metrics
// records nothing.
type Metrics struct {
	resolutions  *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	computations *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them with
// reg when reg is not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "resolutions_total",
				Help:      "Total number of single-winner resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "behavior",
				Name:      "rule_decisions_total",
				Help:      "Total number of candidates evaluated by behavior rules.",
			},
			[]string{"decision"},
		),
		computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "contract_computations_total",
				Help:      "Total number of per-contract computations stored in the cache.",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.resolutions, m.decisions, m.computations} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) resolved(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) decided(enabled bool) {
	if m == nil {
		return
	}
	decision := "disabled"
	if enabled {
		decision = "enabled"
	}
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) computation(kind string) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(kind).Inc()
}
