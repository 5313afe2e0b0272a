// internal/console/board.go
package console

import (
	"sync"
	"time"

	"github.com/signalnine/wildguard/internal/protocol"
)

// Source says where a view's data came from
type Source string

const (
	SourceNone     Source = ""
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// View is one independently refreshed slice of the dashboard
type View[T any] struct {
	Data      T
	Source    Source
	UpdatedAt time.Time
	Err       string // why the fallback is showing
}

// Status levels for the alert status line
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// StatusLine is a one-line status message
type StatusLine struct {
	Message string
	Level   string
	At      time.Time
}

// ReportFilter narrows the report listing
type ReportFilter struct {
	Status   string
	Priority string
}

// ReviewSnapshot is the detail view of the active review session
type ReviewSnapshot struct {
	ReportID string
	Report   *protocol.Report
	Error    string
}

// Snapshot is a consistent copy of the board for rendering
type Snapshot struct {
	Overview    View[protocol.DashboardStats]
	Reports     View[[]protocol.Report]
	Threats     View[[]protocol.ThreatPrediction]
	Sensors     View[protocol.SensorOverview]
	Filter      ReportFilter
	Connected   bool
	Alerts      []AlertEntry
	AlertStatus StatusLine
	Review      *ReviewSnapshot
}

// Board owns everything the console displays. Every mutation takes mu, so
// writers are serialized no matter which goroutine delivers the data.
type Board struct {
	mu sync.RWMutex

	overview  View[protocol.DashboardStats]
	reports   View[[]protocol.Report]
	threats   View[[]protocol.ThreatPrediction]
	sensors   View[protocol.SensorOverview]
	filter    ReportFilter
	connected bool

	alerts      *AlertBuffer
	alertStatus StatusLine

	review    *ReviewSession
	reviewErr string
}

// NewBoard creates an empty board with the given alert capacity
func NewBoard(alertCapacity int) *Board {
	return &Board{alerts: NewAlertBuffer(alertCapacity)}
}

// SetOverview replaces the overview counters. The overview outcome doubles
// as the API connection indicator.
func (b *Board) SetOverview(stats protocol.DashboardStats, src Source, at time.Time, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overview = View[protocol.DashboardStats]{Data: stats, Source: src, UpdatedAt: at, Err: errString(cause)}
	b.connected = src == SourceLive
}

// SetReports replaces the report listing
func (b *Board) SetReports(reports []protocol.Report, src Source, at time.Time, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = View[[]protocol.Report]{Data: reports, Source: src, UpdatedAt: at, Err: errString(cause)}
}

// SetThreats replaces the threat table
func (b *Board) SetThreats(threats []protocol.ThreatPrediction, src Source, at time.Time, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.threats = View[[]protocol.ThreatPrediction]{Data: threats, Source: src, UpdatedAt: at, Err: errString(cause)}
}

// SetSensors replaces the sensor summary
func (b *Board) SetSensors(overview protocol.SensorOverview, src Source, at time.Time, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sensors = View[protocol.SensorOverview]{Data: overview, Source: src, UpdatedAt: at, Err: errString(cause)}
}

// Filter returns the active report filter
func (b *Board) Filter() ReportFilter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// SetFilter replaces the active report filter
func (b *Board) SetFilter(f ReportFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
}

// InsertAlert adds a rendered alert at the head of the list and returns the
// number of visible alerts afterwards.
func (b *Board) InsertAlert(e AlertEntry) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts.Insert(e)
	return b.alerts.Len()
}

// SetAlertStatus updates the alert channel status line
func (b *Board) SetAlertStatus(message, level string, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alertStatus = StatusLine{Message: message, Level: level, At: at}
}

// FindReport looks up a displayed report by id
func (b *Board) FindReport(id string) (protocol.Report, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, r := range b.reports.Data {
		if r.ID == id {
			return r, true
		}
	}
	return protocol.Report{}, false
}

// Review returns the active review session, or nil
func (b *Board) Review() *ReviewSession {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.review
}

// activate makes s the active review, replacing any previous one
func (b *Board) activate(s *ReviewSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.review = s
	b.reviewErr = ""
}

func (b *Board) isActive(s *ReviewSession) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.review == s
}

// closeReview closes s if it is still the active session
func (b *Board) closeReview(s *ReviewSession) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.review != s {
		return false
	}
	b.review = nil
	b.reviewErr = ""
	return true
}

func (b *Board) setReviewError(s *ReviewSession, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.review == s {
		b.reviewErr = msg
	}
}

// Snapshot copies the board for rendering
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Overview:    b.overview,
		Reports:     b.reports,
		Threats:     b.threats,
		Sensors:     b.sensors,
		Filter:      b.filter,
		Connected:   b.connected,
		Alerts:      b.alerts.Entries(),
		AlertStatus: b.alertStatus,
	}
	snap.Reports.Data = append([]protocol.Report(nil), b.reports.Data...)
	snap.Threats.Data = append([]protocol.ThreatPrediction(nil), b.threats.Data...)

	if b.review != nil {
		snap.Review = &ReviewSnapshot{
			ReportID: b.review.reportID,
			Report:   b.review.report,
			Error:    b.reviewErr,
		}
	}
	return snap
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
