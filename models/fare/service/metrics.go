package service

import "github.com/prometheus/client_golang/prometheus"

type QuoteMetrics struct {
	quotes       *prometheus.CounterVec
	missingRates *prometheus.CounterVec
}

func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	m := &QuoteMetrics{
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fare_quotes_total",
			Help: "Fare quotes computed, by outcome (complete, partial, rejected)",
		}, []string{"outcome"}),
		missingRates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fare_quote_missing_rates_total",
			Help: "Rate lookups that found no registered fare rate, by rate class",
		}, []string{"rate_class"}),
	}
	reg.MustRegister(m.quotes, m.missingRates)
	return m
}

func (m *QuoteMetrics) quote(outcome string) {
	if m != nil {
		m.quotes.WithLabelValues(outcome).Inc()
	}
}

func (m *QuoteMetrics) missing(rateClass string, n int) {
	if m != nil && n > 0 {
		m.missingRates.WithLabelValues(rateClass).Add(float64(n))
	}
}
