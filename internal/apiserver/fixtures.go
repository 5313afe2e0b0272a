// internal/apiserver/fixtures.go
package apiserver

import (
	"time"

	"github.com/signalnine/wildguard/internal/protocol"
)

// Demo data. Timestamps are relative to the time the database is first seeded.

func seedReports(now time.Time) []protocol.Report {
	return []protocol.Report{
		{
			ID:          "RPT-0001",
			Type:        "poaching",
			Priority:    protocol.PriorityUrgent,
			Status:      protocol.StatusPending,
			Location:    &protocol.Location{Latitude: -2.153456, Longitude: 34.678901},
			Description: "Gunshots heard near River Camp, two vehicles without lights heading east",
			ReportedAt:  now.Add(-35 * time.Minute),
			Reporter:    &protocol.Reporter{PhoneNumber: "+254712345678", TrustScore: 92},
		},
		{
			ID:          "RPT-0002",
			Type:        "wildlife_sighting",
			Priority:    protocol.PriorityMedium,
			Status:      protocol.StatusPending,
			Location:    &protocol.Location{Latitude: -1.406111, Longitude: 35.011234},
			Description: "Herd of 12 elephants near village water point",
			ReportedAt:  now.Add(-2 * time.Hour),
			Reporter:    &protocol.Reporter{PhoneNumber: "+254722111222", TrustScore: 78},
		},
		{
			ID:          "RPT-0003",
			Type:        "fence_breach",
			Priority:    protocol.PriorityHigh,
			Status:      protocol.StatusInvestigating,
			Location:    &protocol.Location{Latitude: 0.283333, Longitude: 36.900000},
			Description: "Section of the Laikipia boundary fence cut, lion tracks outside",
			ReportedAt:  now.Add(-5 * time.Hour),
			Reporter:    &protocol.Reporter{PhoneNumber: "+254733987654", TrustScore: 64},
		},
		{
			ID:          "RPT-0004",
			Type:        "injury",
			Priority:    protocol.PriorityHigh,
			Status:      protocol.StatusVerified,
			Location:    &protocol.Location{Latitude: -2.652000, Longitude: 37.260000},
			Description: "Young giraffe with snare wound on left foreleg",
			ReportedAt:  now.Add(-9 * time.Hour),
		},
		{
			ID:          "RPT-0005",
			Type:        "illegal_logging",
			Priority:    protocol.PriorityLow,
			Status:      protocol.StatusRejected,
			Location:    &protocol.Location{Latitude: -0.366667, Longitude: 35.283333},
			Description: "Chainsaw noise reported, patrol found licensed clearing",
			ReportedAt:  now.Add(-26 * time.Hour),
			Reporter:    &protocol.Reporter{PhoneNumber: "+254700555444", TrustScore: 41},
		},
	}
}

func seedPublicReports(now time.Time) []protocol.PublicReport {
	return []protocol.PublicReport{
		{
			ID:          "WG-1001",
			Type:        "Wildlife Sighting",
			Animal:      "African Elephant",
			Location:    "Maasai Mara",
			Urgency:     "medium",
			Description: "Herd of 12 elephants near village water point",
			Timestamp:   now.Add(-2 * time.Hour),
			Status:      "verified",
		},
		{
			ID:          "WG-1002",
			Type:        "Poaching Alert",
			Animal:      "Black Rhinoceros",
			Location:    "Amboseli",
			Urgency:     "high",
			Description: "Suspicious activity reported near rhino sanctuary",
			Timestamp:   now.Add(-4 * time.Hour),
			Status:      "investigating",
		},
		{
			ID:          "WG-1003",
			Type:        "Human-Wildlife Conflict",
			Animal:      "African Lion",
			Location:    "Laikipia",
			Urgency:     "high",
			Description: "Lion spotted near cattle grazing area",
			Timestamp:   now.Add(-6 * time.Hour),
			Status:      "resolved",
		},
	}
}

// threatRecommendations are the externally computed predictions the demo serves
func threatRecommendations() []protocol.ThreatPrediction {
	return []protocol.ThreatPrediction{
		{
			Type:       "poaching_risk",
			RiskScore:  0.87,
			Location:   protocol.Location{Latitude: -2.15, Longitude: 34.68},
			TimeWindow: "next_6h",
			Confidence: 0.91,
			RecommendedActions: []protocol.RecommendedAction{
				{Action: "immediate_patrol", Priority: protocol.PriorityUrgent},
				{Action: "alert_community_scouts", Priority: protocol.PriorityHigh},
			},
		},
		{
			Type:       "human_activity",
			RiskScore:  0.54,
			Location:   protocol.Location{Latitude: 0.28, Longitude: 36.9},
			TimeWindow: "next_12h",
			Confidence: 0.72,
			RecommendedActions: []protocol.RecommendedAction{
				{Action: "repair_fence", Priority: protocol.PriorityHigh},
			},
		},
		{
			Type:       "fire_risk",
			RiskScore:  0.31,
			Location:   protocol.Location{Latitude: -2.65, Longitude: 37.26},
			TimeWindow: "next_24h",
			Confidence: 0.66,
			RecommendedActions: []protocol.RecommendedAction{
				{Action: "monitor", Priority: protocol.PriorityMedium},
			},
		},
	}
}

func sensorOverview() protocol.SensorOverview {
	return protocol.SensorOverview{Total: 25, Online: 23, Alerting: 2, LowBattery: 1}
}

var leaderboard = []protocol.LeaderboardEntry{
	{Rank: 1, Name: "Samuel Kiptoo", Location: "Maasai Mara", Reports: 47, Credits: 2350,
		Badges: []string{"Wildlife Guardian", "Elephant Protector", "Community Champion"}},
	{Rank: 2, Name: "Grace Wanjiku", Location: "Laikipia", Reports: 35, Credits: 1750,
		Badges: []string{"Lion Watcher", "Threat Reporter"}},
	{Rank: 3, Name: "David Lekishon", Location: "Amboseli", Reports: 28, Credits: 1400,
		Badges: []string{"Rhino Guardian", "Early Reporter"}},
	{Rank: 4, Name: "Mary Nyambura", Location: "Tsavo", Reports: 23, Credits: 1150,
		Badges: []string{"Leopard Spotter"}},
	{Rank: 5, Name: "John Muriuki", Location: "Samburu", Reports: 19, Credits: 950,
		Badges: []string{"Giraffe Observer"}},
}

// baseSiteStats are the headline numbers before this server's own submissions
var baseSiteStats = protocol.SiteStats{
	TotalReports:       15247,
	CommunitiesEngaged: 523,
	ThreatsPrevented:   1205,
	SpeciesProtected:   45,
	ActiveUsers:        3421,
}

var rewardBadges = map[string]string{
	"Wildlife Sighting":       "Wildlife Observer",
	"Poaching Alert":          "Threat Reporter",
	"Human-Wildlife Conflict": "Conflict Monitor",
	"Habitat Threat":          "Habitat Guardian",
}

// rewardBadge picks the badge granted for a public submission
func rewardBadge(reportType string) string {
	if b, ok := rewardBadges[reportType]; ok {
		return b
	}
	return "Wildlife Supporter"
}

// publicTypes and publicUrgency map public-site submissions onto the rangers model
var publicTypes = map[string]string{
	"Wildlife Sighting":       "wildlife_sighting",
	"Poaching Alert":          "poaching",
	"Human-Wildlife Conflict": "suspicious_activity",
	"Habitat Threat":          "illegal_logging",
}

var publicUrgency = map[string]string{
	"low":      protocol.PriorityLow,
	"medium":   protocol.PriorityMedium,
	"high":     protocol.PriorityHigh,
	"critical": protocol.PriorityUrgent,
	"urgent":   protocol.PriorityUrgent,
}

// sampleAlerts are cycled by the demo emitter
var sampleAlerts = []struct {
	Type string
	Data interface{}
}{
	{protocol.AlertSensor, protocol.SensorAlert{SensorID: "ACU-07", AlertType: "gunshot", Confidence: 0.93}},
	{protocol.AlertThreat, protocol.ThreatAlert{RiskScore: 0.82, Location: protocol.AlertPoint{Lat: -2.1534, Lng: 34.6789}}},
	{protocol.AlertSensor, protocol.SensorAlert{SensorID: "CAM-12", AlertType: "vehicle_detected", Confidence: 0.71}},
	{protocol.AlertNewReport, protocol.NewReportAlert{Type: "wildlife_sighting", Location: protocol.AlertPoint{Lat: -1.4061, Lng: 35.0112}}},
}

const (
	ussdMainMenu = "CON WildGuard USSD Menu:\n" +
		"1. Report Wildlife Sighting\n" +
		"2. Report Poaching/Threat\n" +
		"3. Report Human-Wildlife Conflict\n" +
		"4. Emergency Alert\n" +
		"5. Check Rewards"
	ussdAnimalMenu = "CON Select Animal:\n" +
		"1. Elephant\n" +
		"2. Lion\n" +
		"3. Leopard\n" +
		"4. Rhino\n" +
		"5. Other"
	ussdThreatMenu = "CON Report Poaching/Threat:\n" +
		"1. Suspicious Activity\n" +
		"2. Illegal Hunting\n" +
		"3. Habitat Destruction\n" +
		"4. Other"
	ussdRewards = "END Your WildGuard Rewards:\n" +
		"Credits: 150\n" +
		"Badges: Wildlife Guardian\n" +
		"Rank: #23 in your region"
	ussdThanks = "END Thank you for using WildGuard! Your report has been received."
)

// ussdReply is the menu screen for the digits entered so far
func ussdReply(text string) string {
	switch text {
	case "":
		return ussdMainMenu
	case "1":
		return ussdAnimalMenu
	case "2":
		return ussdThreatMenu
	case "5":
		return ussdRewards
	default:
		return ussdThanks
	}
}
