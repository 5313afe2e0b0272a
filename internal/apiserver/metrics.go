// internal/apiserver/metrics.go
package apiserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the demo server's Prometheus metrics
type Metrics struct {
	Subscribers        prometheus.Gauge
	Broadcasts         *prometheus.CounterVec
	DroppedSubscribers prometheus.Counter
	Verifications      *prometheus.CounterVec
	Submissions        prometheus.Counter
}

// NewMetrics creates the server metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildguard_server_stream_subscribers",
			Help: "Connected alert stream subscribers",
		}),
		Broadcasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wildguard_server_alerts_broadcast_total",
				Help: "Alert events broadcast to the stream, by type",
			},
			[]string{"type"},
		),
		DroppedSubscribers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildguard_server_stream_dropped_total",
			Help: "Subscribers disconnected for falling behind",
		}),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wildguard_server_verifications_total",
				Help: "Report verifications by action",
			},
			[]string{"action"},
		),
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildguard_server_public_submissions_total",
			Help: "Reports submitted through the public site",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Subscribers, m.Broadcasts, m.DroppedSubscribers, m.Verifications, m.Submissions)
	}
	return m
}
