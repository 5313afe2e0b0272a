// internal/console/alerts_test.go
package console

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAlertBufferBounded(t *testing.T) {
	buf := NewAlertBuffer(10)
	for i := 0; i < 25; i++ {
		evicted := buf.Insert(AlertEntry{Content: fmt.Sprintf("alert %d", i)})

		if buf.Len() > 10 {
			t.Fatalf("after insert %d: Len = %d, want <= 10", i, buf.Len())
		}
		if got := buf.Entries()[0].Content; got != fmt.Sprintf("alert %d", i) {
			t.Fatalf("after insert %d: head = %q, want newest", i, got)
		}
		if i < 10 && evicted != nil {
			t.Errorf("insert %d evicted %q, want nothing", i, evicted.Content)
		}
		if i >= 10 {
			if evicted == nil {
				t.Fatalf("insert %d evicted nothing", i)
			}
			if want := fmt.Sprintf("alert %d", i-10); evicted.Content != want {
				t.Errorf("insert %d evicted %q, want %q", i, evicted.Content, want)
			}
		}
	}

	entries := buf.Entries()
	if len(entries) != 10 {
		t.Fatalf("Entries = %d, want 10", len(entries))
	}
	for i, e := range entries {
		if want := fmt.Sprintf("alert %d", 24-i); e.Content != want {
			t.Errorf("entries[%d] = %q, want %q", i, e.Content, want)
		}
	}
}

func TestAlertBufferEntriesIsCopy(t *testing.T) {
	buf := NewAlertBuffer(3)
	buf.Insert(AlertEntry{Content: "a"})

	entries := buf.Entries()
	entries[0].Content = "changed"

	if got := buf.Entries()[0].Content; got != "a" {
		t.Errorf("buffer entry = %q, want %q", got, "a")
	}
}

func TestDecodeAlert(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    string
		content string
		refresh bool
	}{
		{
			name:    "new report",
			payload: `{"type":"new_report","data":{"type":"poaching","location":{"lat":-2.15,"lng":34.68}}}`,
			kind:    "new_report",
			content: "New poaching report at -2.15, 34.68",
			refresh: true,
		},
		{
			name:    "threat",
			payload: `{"type":"threat_alert","data":{"riskScore":0.87,"location":{"lat":-1.4,"lng":35}}}`,
			kind:    "threat_alert",
			content: "High threat detected (87% risk) at -1.4, 35",
			refresh: true,
		},
		{
			name:    "sensor",
			payload: `{"type":"sensor_alert","data":{"alertType":"gunshot","confidence":0.93}}`,
			kind:    "sensor_alert",
			content: "Sensor alert: gunshot - Confidence: 93%",
		},
		{
			name:    "unknown type",
			payload: `{"type":"drone_sighting","data":{ "altitude": 120 }}`,
			kind:    KindOther,
			content: `{"altitude":120}`,
		},
		{
			name:    "unknown type without data",
			payload: `{"type":"ping"}`,
			kind:    KindOther,
			content: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeAlert([]byte(tt.payload))
			if err != nil {
				t.Fatalf("DecodeAlert error: %v", err)
			}
			if a.Kind() != tt.kind {
				t.Errorf("Kind = %q, want %q", a.Kind(), tt.kind)
			}
			if got := AlertContent(a); got != tt.content {
				t.Errorf("AlertContent = %q, want %q", got, tt.content)
			}
			if a.TriggersRefresh() != tt.refresh {
				t.Errorf("TriggersRefresh = %v, want %v", a.TriggersRefresh(), tt.refresh)
			}
		})
	}
}

func TestDecodeAlertMalformed(t *testing.T) {
	payloads := []string{
		`not json`,
		`{"data":{}}`,
		`{"type":"new_report"}`,
		`{"type":"new_report","data":null}`,
		`{"type":"threat_alert","data":{"riskScore":"high"}}`,
		`{"type":"sensor_alert","data":[1,2]}`,
	}
	for _, p := range payloads {
		if _, err := DecodeAlert([]byte(p)); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("DecodeAlert(%s) error = %v, want ErrMalformedEvent", p, err)
		}
	}
}

func TestRenderAlertEscapes(t *testing.T) {
	a, err := DecodeAlert([]byte(`{"type":"sensor_alert","data":{"alertType":"<script>x</script>","confidence":0.5}}`))
	if err != nil {
		t.Fatalf("DecodeAlert error: %v", err)
	}

	received := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)
	entry, err := RenderAlert(a, received)
	if err != nil {
		t.Fatalf("RenderAlert error: %v", err)
	}

	html := string(entry.HTML)
	if strings.Contains(html, "<script>") {
		t.Errorf("HTML not escaped: %s", html)
	}
	if !strings.Contains(html, "alert-sensor_alert") {
		t.Errorf("HTML missing kind class: %s", html)
	}
	if !strings.Contains(html, "14:05:09") {
		t.Errorf("HTML missing time: %s", html)
	}
}
