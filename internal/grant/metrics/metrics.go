package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GrantsIssuedTotal   prometheus.Counter
	GrantsRedeemedTotal prometheus.Counter
	GrantsExpiredTotal  prometheus.Counter
	GrantsFailedTotal   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		GrantsIssuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ghostlogin_grants_issued_total",
			Help: "Total number of impersonation grants issued",
		}),
		GrantsRedeemedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ghostlogin_grants_redeemed_total",
			Help: "Total number of grants redeemed into a customer session",
		}),
		GrantsExpiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ghostlogin_grants_expired_total",
			Help: "Total number of grants rejected because their lifetime lapsed",
		}),
		GrantsFailedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ghostlogin_grants_failed_total",
			Help: "Total number of grants whose redemption failed after validation",
		}),
	}
}

func (m *Metrics) IncrementIssued() {
	m.GrantsIssuedTotal.Inc()
}

func (m *Metrics) IncrementRedeemed() {
	m.GrantsRedeemedTotal.Inc()
}

func (m *Metrics) IncrementExpired() {
	m.GrantsExpiredTotal.Inc()
}

func (m *Metrics) IncrementFailed() {
	m.GrantsFailedTotal.Inc()
}
