package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds transport-level Prometheus metrics.
type HTTP struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTP registers the HTTP metrics with reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	factory := promauto.With(reg)
	return &HTTP{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donationpool_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "donationpool_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveRequest records one served request.
func (m *HTTP) ObserveRequest(route, method string, status int, start time.Time) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}
