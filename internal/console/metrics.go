// internal/console/metrics.go
package console

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes recorded per view
const (
	outcomeLive     = "live"
	outcomeFallback = "fallback"
)

// Metrics contains the console's Prometheus metrics
type Metrics struct {
	Fetches       *prometheus.CounterVec
	AlertEvents   *prometheus.CounterVec
	AlertsDropped prometheus.Counter
	Reconnects    prometheus.Counter
	AlertsVisible prometheus.Gauge
}

// NewMetrics creates the console metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wildguard_console_fetch_total",
				Help: "Dashboard view fetches by view and outcome (live or fallback)",
			},
			[]string{"view", "outcome"},
		),
		AlertEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wildguard_console_alert_events_total",
				Help: "Alert events inserted into the alert list, by kind",
			},
			[]string{"kind"},
		),
		AlertsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildguard_console_alert_events_dropped_total",
			Help: "Alert events dropped because they could not be parsed",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildguard_console_stream_reconnects_total",
			Help: "Alert stream resubscriptions after an error",
		}),
		AlertsVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildguard_console_alerts_visible",
			Help: "Alerts currently in the alert list",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Fetches, m.AlertEvents, m.AlertsDropped, m.Reconnects, m.AlertsVisible)
	}
	return m
}
