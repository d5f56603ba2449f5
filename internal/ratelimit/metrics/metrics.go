package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions   *prometheus.CounterVec
	StoreErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "prepgate_ratelimit_decisions_total",
			Help: "Total number of rate limit decisions by outcome",
		}, []string{"outcome"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prepgate_ratelimit_store_errors_total",
			Help: "Total number of store errors absorbed by the fail-open limiter",
		}),
	}
}

func (m *Metrics) RecordDecision(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.Decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordStoreError() {
	m.StoreErrors.Inc()
}
