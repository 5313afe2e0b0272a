// internal/console/fallback.go
package console

import (
	"time"

	"github.com/signalnine/wildguard/internal/protocol"
)

// Fixed datasets shown when a view's fetch fails. Each call returns a fresh
// copy so callers cannot alter the originals.

// FallbackStats are the overview counters shown offline
func FallbackStats() protocol.DashboardStats {
	return protocol.DashboardStats{
		TotalReports:         156,
		PendingVerifications: 12,
		VerifiedToday:        8,
		UrgentReports:        3,
	}
}

// FallbackSensors is the sensor summary shown offline
func FallbackSensors() protocol.SensorOverview {
	return protocol.SensorOverview{
		Total:      25,
		Online:     23,
		Alerting:   2,
		LowBattery: 1,
	}
}

// FallbackReports is the report listing shown offline, timestamped relative to now
func FallbackReports(now time.Time) []protocol.Report {
	return []protocol.Report{
		{
			ID:          "mock-1",
			Type:        "poaching",
			Priority:    protocol.PriorityUrgent,
			Status:      protocol.StatusPending,
			Location:    &protocol.Location{Latitude: -2.153456, Longitude: 34.678901},
			Description: "Gunshots heard near River Camp",
			ReportedAt:  now.Add(-2 * time.Hour),
			Reporter: &protocol.Reporter{
				PhoneNumber: "+254712345678",
				TrustScore:  92,
			},
		},
	}
}

// FallbackThreats is the threat table shown offline
func FallbackThreats() []protocol.ThreatPrediction {
	return []protocol.ThreatPrediction{
		{
			Type:       "poaching_risk",
			RiskScore:  0.87,
			Location:   protocol.Location{Latitude: -2.15, Longitude: 34.68},
			TimeWindow: "next_6h",
			Confidence: 0.91,
			RecommendedActions: []protocol.RecommendedAction{
				{Action: "immediate_patrol", Priority: protocol.PriorityUrgent},
			},
		},
	}
}
