package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func SetClock(s *SettlementService, now func() time.Time) {
	s.now = now
}

func TransitionCounter(m *Metrics, action string) prometheus.Counter {
	return m.transitions.WithLabelValues(action)
}

func TransitionFailureCounter(m *Metrics, action string) prometheus.Counter {
	return m.transitionFailures.WithLabelValues(action)
}
