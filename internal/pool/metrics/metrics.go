package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation pool.
type Metrics struct {
	Operations        *prometheus.CounterVec
	Donations         *prometheus.CounterVec
	Withdrawals       *prometheus.CounterVec
	ActiveShelters    prometheus.Gauge
	OperationDuration *prometheus.HistogramVec
}

// New registers the pool metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donationpool_operations_total",
			Help: "Pool operations by name and outcome code",
		}, []string{"operation", "outcome"}),
		Donations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donationpool_donations_total",
			Help: "Accepted donations by entry point",
		}, []string{"path"}),
		Withdrawals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donationpool_withdrawals_total",
			Help: "Completed payouts by kind",
		}, []string{"kind"}),
		ActiveShelters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "donationpool_active_shelters",
			Help: "Active shelters after the last registry change",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "donationpool_operation_duration_seconds",
			Help:    "Duration of pool operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// ObserveOperation records one finished operation. outcome is "ok" or the
// error code.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementDonation(path string) {
	m.Donations.WithLabelValues(path).Inc()
}

func (m *Metrics) IncrementWithdrawal(kind string) {
	m.Withdrawals.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetActiveShelters(n uint64) {
	m.ActiveShelters.Set(float64(n))
}
