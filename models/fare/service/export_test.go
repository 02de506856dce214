package service

import "github.com/prometheus/client_golang/prometheus"

func (m *QuoteMetrics) QuotesCounter(outcome string) prometheus.Counter {
	return m.quotes.WithLabelValues(outcome)
}

func (m *QuoteMetrics) MissingCounter(rateClass string) prometheus.Counter {
	return m.missingRates.WithLabelValues(rateClass)
}
