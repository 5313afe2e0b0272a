// internal/console/alerts.go
package console

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/signalnine/wildguard/internal/protocol"
)

// KindOther is the display kind for alert types the console has no template for
const KindOther = "other"

// ErrMalformedEvent marks a push-channel payload that could not be decoded
var ErrMalformedEvent = errors.New("malformed alert event")

// Alert is a decoded AlertEvent. Exactly one payload field is set for the
// known kinds; Raw always holds the original data.
type Alert struct {
	Type      string
	NewReport *protocol.NewReportAlert
	Threat    *protocol.ThreatAlert
	Sensor    *protocol.SensorAlert
	Raw       json.RawMessage
}

// Kind collapses unknown types into KindOther
func (a Alert) Kind() string {
	switch a.Type {
	case protocol.AlertNewReport, protocol.AlertThreat, protocol.AlertSensor:
		return a.Type
	default:
		return KindOther
	}
}

// TriggersRefresh reports whether this alert should pull fresh reports and threats
func (a Alert) TriggersRefresh() bool {
	return a.Type == protocol.AlertNewReport || a.Type == protocol.AlertThreat
}

// DecodeAlert parses a push-channel payload into a typed Alert
func DecodeAlert(payload []byte) (Alert, error) {
	var ev protocol.AlertEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Alert{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == "" {
		return Alert{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	a := Alert{Type: ev.Type, Raw: ev.Data}
	var target interface{}
	switch ev.Type {
	case protocol.AlertNewReport:
		a.NewReport = &protocol.NewReportAlert{}
		target = a.NewReport
	case protocol.AlertThreat:
		a.Threat = &protocol.ThreatAlert{}
		target = a.Threat
	case protocol.AlertSensor:
		a.Sensor = &protocol.SensorAlert{}
		target = a.Sensor
	default:
		return a, nil
	}

	if len(ev.Data) == 0 || string(ev.Data) == "null" {
		return Alert{}, fmt.Errorf("%w: %s without data", ErrMalformedEvent, ev.Type)
	}
	if err := json.Unmarshal(ev.Data, target); err != nil {
		return Alert{}, fmt.Errorf("%w: %s data: %v", ErrMalformedEvent, ev.Type, err)
	}
	return a, nil
}

// AlertContent is the one-line description shown in an alert card
func AlertContent(a Alert) string {
	switch {
	case a.NewReport != nil:
		return fmt.Sprintf("New %s report at %v, %v",
			a.NewReport.Type, a.NewReport.Location.Lat, a.NewReport.Location.Lng)
	case a.Threat != nil:
		return fmt.Sprintf("High threat detected (%.0f%% risk) at %v, %v",
			a.Threat.RiskScore*100, a.Threat.Location.Lat, a.Threat.Location.Lng)
	case a.Sensor != nil:
		return fmt.Sprintf("Sensor alert: %s - Confidence: %.0f%%",
			a.Sensor.AlertType, a.Sensor.Confidence*100)
	}

	var buf bytes.Buffer
	if len(a.Raw) > 0 && json.Compact(&buf, a.Raw) == nil {
		return buf.String()
	}
	return "null"
}

// AlertEntry is one rendered card in the alert list
type AlertEntry struct {
	Type     string
	Kind     string
	Content  string
	Received time.Time
	HTML     template.HTML
}

var alertTmpl = template.Must(template.New("alert").Parse(
	`<div class="alert alert-{{.Kind}}">` +
		`<div class="alert-header"><span class="alert-type">{{.Type}}</span>` +
		`<span class="alert-time">{{.Received.Format "15:04:05"}}</span></div>` +
		`<div class="alert-content">{{.Content}}</div></div>`))

// RenderAlert builds the card for an alert received at the given time
func RenderAlert(a Alert, received time.Time) (AlertEntry, error) {
	entry := AlertEntry{
		Type:     a.Type,
		Kind:     a.Kind(),
		Content:  AlertContent(a),
		Received: received,
	}

	var buf bytes.Buffer
	if err := alertTmpl.Execute(&buf, entry); err != nil {
		return AlertEntry{}, fmt.Errorf("render alert: %w", err)
	}
	entry.HTML = template.HTML(buf.String())
	return entry, nil
}

// AlertBuffer holds rendered alerts newest first, never more than its capacity.
// It is not safe for concurrent use; Board serializes access.
type AlertBuffer struct {
	entries  []AlertEntry
	capacity int
}

// NewAlertBuffer creates a buffer holding at most capacity entries
func NewAlertBuffer(capacity int) *AlertBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &AlertBuffer{
		entries:  make([]AlertEntry, 0, capacity+1),
		capacity: capacity,
	}
}

// Insert puts e at the head. When that overflows the buffer exactly one entry,
// the oldest, is removed from the tail and returned.
func (b *AlertBuffer) Insert(e AlertEntry) (evicted *AlertEntry) {
	b.entries = append(b.entries, AlertEntry{})
	copy(b.entries[1:], b.entries)
	b.entries[0] = e

	if len(b.entries) > b.capacity {
		last := b.entries[len(b.entries)-1]
		b.entries = b.entries[:len(b.entries)-1]
		return &last
	}
	return nil
}

// Len returns the number of visible entries
func (b *AlertBuffer) Len() int { return len(b.entries) }

// Cap returns the buffer capacity
func (b *AlertBuffer) Cap() int { return b.capacity }

// Entries returns a copy of the entries, newest first
func (b *AlertBuffer) Entries() []AlertEntry {
	out := make([]AlertEntry, len(b.entries))
	copy(out, b.entries)
	return out
}
