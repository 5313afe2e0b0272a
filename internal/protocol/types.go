// internal/protocol/types.go
package protocol

import (
	"encoding/json"
	"time"
)

// Priority levels a report can carry
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Report statuses
const (
	StatusPending       = "pending"
	StatusVerified      = "verified"
	StatusRejected      = "rejected"
	StatusInvestigating = "investigating"
)

// Verification actions
const (
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionInvestigate = "investigate"
)

// Alert event types carried on the push channel
const (
	AlertNewReport = "new_report"
	AlertThreat    = "threat_alert"
	AlertSensor    = "sensor_alert"
)

// Location is a latitude/longitude pair
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reporter identifies who submitted a report
type Reporter struct {
	PhoneNumber string `json:"phoneNumber"`
	TrustScore  int    `json:"trustScore"` // 0-100
}

// Report is a single field report as listed for rangers
type Report struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Location    *Location `json:"location,omitempty"`
	Description string    `json:"description"`
	ReportedAt  time.Time `json:"reportedAt"`
	Reporter    *Reporter `json:"reporter,omitempty"`
}

// DashboardStats are the aggregate counters on the overview
type DashboardStats struct {
	TotalReports         int `json:"totalReports"`
	PendingVerifications int `json:"pendingVerifications"`
	VerifiedToday        int `json:"verifiedToday"`
	UrgentReports        int `json:"urgentReports"`
}

// RecommendedAction is a suggested response to a threat
type RecommendedAction struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// ThreatPrediction is an externally computed risk estimate
type ThreatPrediction struct {
	Type               string              `json:"type"`
	RiskScore          float64             `json:"riskScore"` // 0.0-1.0
	Location           Location            `json:"location"`
	TimeWindow         string              `json:"timeWindow,omitempty"`
	Confidence         float64             `json:"confidence,omitempty"`
	RecommendedActions []RecommendedAction `json:"recommendedActions"`
}

// ThreatSummary groups the current threat recommendations
type ThreatSummary struct {
	Recommendations []ThreatPrediction `json:"recommendations"`
}

// DashboardResponse is returned by GET /api/rangers/dashboard
type DashboardResponse struct {
	Stats         *DashboardStats `json:"stats"`
	ThreatSummary *ThreatSummary  `json:"threatSummary,omitempty"`
}

// ReportsResponse is returned by GET /api/rangers/reports.
// Reports is a pointer so a missing key can be told apart from an empty list.
type ReportsResponse struct {
	Success *bool     `json:"success,omitempty"`
	Reports *[]Report `json:"reports"`
	Error   string    `json:"error,omitempty"`
}

// SensorOverview summarises the sensor fleet
type SensorOverview struct {
	Total      int `json:"total"`
	Online     int `json:"online"`
	Alerting   int `json:"alerting"`
	LowBattery int `json:"lowBattery"`
}

// SensorNetworkResponse is returned by GET /api/sensors/network
type SensorNetworkResponse struct {
	Success  bool            `json:"success"`
	Overview *SensorOverview `json:"overview"`
}

// VerifyRequest is posted to /api/rangers/reports/{id}/verify
type VerifyRequest struct {
	Action           string  `json:"action"`
	Notes            string  `json:"notes"`
	RewardAmount     float64 `json:"rewardAmount"`
	FollowUpRequired bool    `json:"followUpRequired"`
}

// VerifyResponse is the verification outcome
type VerifyResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Report  *Report `json:"report,omitempty"`
}

// AlertEvent is one message on the alert stream. Data is decoded per Type.
type AlertEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// AlertPoint is the short lat/lng form used inside alert payloads
type AlertPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewReportAlert is the payload of a new_report event
type NewReportAlert struct {
	ReportID string     `json:"reportId,omitempty"`
	Type     string     `json:"type"`
	Location AlertPoint `json:"location"`
}

// ThreatAlert is the payload of a threat_alert event
type ThreatAlert struct {
	RiskScore float64    `json:"riskScore"`
	Location  AlertPoint `json:"location"`
}

// SensorAlert is the payload of a sensor_alert event
type SensorAlert struct {
	SensorID   string  `json:"sensorId,omitempty"`
	AlertType  string  `json:"alertType"`
	Confidence float64 `json:"confidence"`
}

// PublicReport is the public-site report listing entry
type PublicReport struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Animal      string    `json:"animal,omitempty"`
	Location    string    `json:"location"`
	Urgency     string    `json:"urgency"`
	Description string    `json:"description"`
	Contact     string    `json:"contact,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
}

// SubmitReportRequest is posted to /api/reports from the public site
type SubmitReportRequest struct {
	Type        string `json:"type"`
	Animal      string `json:"animal"`
	Location    string `json:"location"`
	Urgency     string `json:"urgency"`
	Description string `json:"description"`
	Contact     string `json:"contact"`

	// Optional coordinates, forwarded to rangers when present
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Reward is granted for a public submission
type Reward struct {
	Credits int    `json:"credits"`
	Badge   string `json:"badge"`
}

// SubmitReportResponse acknowledges a public submission
type SubmitReportResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	ReportID string  `json:"reportId,omitempty"`
	Reward   *Reward `json:"reward,omitempty"`
}

// LeaderboardEntry is one row of the community leaderboard
type LeaderboardEntry struct {
	Rank     int      `json:"rank"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Reports  int      `json:"reports"`
	Credits  int      `json:"credits"`
	Badges   []string `json:"badges"`
}

// RecentActivity counts submissions over trailing windows
type RecentActivity struct {
	LastHour int `json:"lastHour"`
	LastDay  int `json:"lastDay"`
	LastWeek int `json:"lastWeek"`
}

// SiteStats are the public-site headline numbers
type SiteStats struct {
	TotalReports       int            `json:"totalReports"`
	CommunitiesEngaged int            `json:"communitiesEngaged"`
	ThreatsPrevented   int            `json:"threatsPrevented"`
	SpeciesProtected   int            `json:"speciesProtected"`
	ActiveUsers        int            `json:"activeUsers"`
	RecentActivity     RecentActivity `json:"recentActivity"`
}

// ContactRequest is posted to /api/contact
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Ack is the generic success/message reply
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
