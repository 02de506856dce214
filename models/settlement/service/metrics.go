package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments settlement calculation and lifecycle transitions.
type Metrics struct {
	calculationDuration *prometheus.HistogramVec
	transitions         *prometheus.CounterVec
	transitionFailures  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calculationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_settlement_calculation_duration_seconds",
			Help:    "Time taken to load records and calculate a monthly settlement",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"source"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_settlement_transitions_total",
			Help: "Settlement lifecycle operations committed, by action",
		}, []string{"action"}),
		transitionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_settlement_transition_failures_total",
			Help: "Settlement lifecycle operations rejected or failed, by action",
		}, []string{"action"}),
	}

	reg.MustRegister(m.calculationDuration)
	reg.MustRegister(m.transitions)
	reg.MustRegister(m.transitionFailures)
	return m
}

func (m *Metrics) observeCalculation(source string, seconds float64) {
	if m == nil {
		return
	}
	m.calculationDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) recordTransition(action string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.transitionFailures.WithLabelValues(action).Inc()
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}
