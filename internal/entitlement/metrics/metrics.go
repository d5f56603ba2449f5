package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PaywallBlocks *prometheus.CounterVec
	GraceAllows   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		PaywallBlocks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "prepgate_paywall_blocks_total",
			Help: "Total number of entitlement denials by reason",
		}, []string{"reason"}),
		GraceAllows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prepgate_grace_cookie_allows_total",
			Help: "Total number of requests admitted on the grace-cookie fast path",
		}),
	}
}

func (m *Metrics) RecordBlock(reason string) {
	m.PaywallBlocks.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordGraceAllow() {
	m.GraceAllows.Inc()
}
