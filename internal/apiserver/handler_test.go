// internal/apiserver/handler_test.go
package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/signalnine/wildguard/internal/protocol"
)

var testLog = &log.Logger{Handler: discard.New(), Level: log.DebugLevel}

type apiFixture struct {
	db      *DB
	hub     *Hub
	metrics *Metrics
	mux     *http.ServeMux
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		db:      newTestDB(t),
		metrics: NewMetrics(prometheus.NewRegistry()),
		mux:     http.NewServeMux(),
	}
	f.hub = NewHub(f.metrics, testLog)
	NewAPI(f.db, f.hub, f.metrics, testLog).Register(f.mux)
	return f
}

func (f *apiFixture) do(method, target, contentType string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestDashboardHandler(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("GET", "/api/rangers/dashboard", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp protocol.DashboardResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Stats == nil || resp.Stats.TotalReports != 5 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if resp.ThreatSummary == nil || len(resp.ThreatSummary.Recommendations) != 3 {
		t.Errorf("threatSummary = %+v", resp.ThreatSummary)
	}
}

func TestRangerReportsHandler(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("GET", "/api/rangers/reports?status=pending&limit=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp protocol.ReportsResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Success == nil || !*resp.Success {
		t.Errorf("success = %v", resp.Success)
	}
	if resp.Reports == nil || len(*resp.Reports) != 1 || (*resp.Reports)[0].Status != "pending" {
		t.Errorf("reports = %+v", resp.Reports)
	}

	rec = f.do("GET", "/api/rangers/reports?reportId=RPT-0003", "", "")
	resp = protocol.ReportsResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Reports == nil || len(*resp.Reports) != 1 || (*resp.Reports)[0].ID != "RPT-0003" {
		t.Errorf("lookup = %+v", resp.Reports)
	}

	// An unmatched filter is an empty array, never a missing one
	rec = f.do("GET", "/api/rangers/reports?reportId=nope", "", "")
	if !strings.Contains(rec.Body.String(), `"reports":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = f.do("GET", "/api/rangers/reports?limit=zero", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp = protocol.ReportsResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Success == nil || *resp.Success || resp.Reports == nil || resp.Error == "" {
		t.Errorf("bad limit body = %+v", resp)
	}
}

func TestConcurrentSubmitAndVerify(t *testing.T) {
	f := newAPIFixture(t)

	const n = 20
	var mu sync.Mutex
	codes := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := f.do("POST", "/api/reports", "application/json",
				`{"type":"Wildlife Sighting","location":"Tsavo","urgency":"low","description":"Elephants at the waterhole"}`)
			mu.Lock()
			codes[fmt.Sprintf("submit %d", rec.Code)]++
			mu.Unlock()
		}()
		go func() {
			defer wg.Done()
			rec := f.do("POST", "/api/rangers/reports/RPT-0001/verify", "application/json", `{"action":"investigate"}`)
			mu.Lock()
			codes[fmt.Sprintf("verify %d", rec.Code)]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if codes["submit 200"] != n || codes["verify 200"] != n {
		t.Errorf("codes = %v, want all 200", codes)
	}
	public, err := f.db.ListPublicReports(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListPublicReports error: %v", err)
	}
	reports, _ := f.db.ListReports(context.Background(), ReportQuery{Limit: 100})
	if len(reports)-len(seedReports(time.Now())) != len(public)-len(seedPublicReports(time.Now())) {
		t.Errorf("rangers reports = %d, public reports = %d, want one per submission", len(reports), len(public))
	}
}

func TestVerifyHandler(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("POST", "/api/rangers/reports/RPT-0002/verify", "application/json",
		`{"action":"reject","notes":"duplicate","rewardAmount":0,"followUpRequired":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp protocol.VerifyResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Success || resp.Report == nil || resp.Report.Status != protocol.StatusRejected {
		t.Errorf("resp = %+v", resp)
	}
	if got := testutil.ToFloat64(f.metrics.Verifications.WithLabelValues("reject")); got != 1 {
		t.Errorf("verifications = %v, want 1", got)
	}
}

func TestVerifyHandlerErrors(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"unknown report", "/api/rangers/reports/RPT-9999/verify", `{"action":"approve"}`, http.StatusNotFound, "Report not found"},
		{"bad action", "/api/rangers/reports/RPT-0001/verify", `{"action":"promote"}`, http.StatusBadRequest, "Invalid action"},
		{"bad json", "/api/rangers/reports/RPT-0001/verify", `{`, http.StatusBadRequest, "Invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do("POST", tt.path, "application/json", tt.body)
			if rec.Code != tt.status {
				t.Errorf("Status = %d, want %d", rec.Code, tt.status)
			}
			var resp protocol.VerifyResponse
			json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Success || resp.Error != tt.errMsg {
				t.Errorf("resp = %+v, want error %q", resp, tt.errMsg)
			}
		})
	}
}

func TestSensorsHandler(t *testing.T) {
	f := newAPIFixture(t)

	var resp protocol.SensorNetworkResponse
	json.NewDecoder(f.do("GET", "/api/sensors/network", "", "").Body).Decode(&resp)
	if !resp.Success || resp.Overview == nil || resp.Overview.Total != 25 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSubmitReportHandler(t *testing.T) {
	f := newAPIFixture(t)
	sub := f.hub.Subscribe()

	body, _ := json.Marshal(map[string]interface{}{
		"type":        "Poaching Alert",
		"animal":      "Black Rhinoceros",
		"location":    "Amboseli",
		"urgency":     "critical",
		"description": "Two men with rifles near the sanctuary gate",
		"contact":     "+254711000111",
		"latitude":    -2.65,
		"longitude":   37.26,
	})
	rec := f.do("POST", "/api/reports", "application/json", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp protocol.SubmitReportResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Success || !strings.HasPrefix(resp.ReportID, "WG-") || len(resp.ReportID) != 11 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Reward == nil || resp.Reward.Credits != 50 || resp.Reward.Badge != "Threat Reporter" {
		t.Errorf("reward = %+v", resp.Reward)
	}

	r, err := f.db.GetReport(context.Background(), resp.ReportID)
	if err != nil {
		t.Fatalf("rangers report not stored: %v", err)
	}
	if r.Type != "poaching" || r.Priority != protocol.PriorityUrgent || r.Status != protocol.StatusPending {
		t.Errorf("rangers report = %+v", r)
	}
	if r.Location == nil || r.Location.Longitude != 37.26 {
		t.Errorf("Location = %+v", r.Location)
	}

	select {
	case ev := <-sub:
		a := protocol.NewReportAlert{}
		json.Unmarshal(ev.Data, &a)
		if ev.Type != protocol.AlertNewReport || a.ReportID != resp.ReportID || a.Location.Lat != -2.65 {
			t.Errorf("alert = %s %s", ev.Type, ev.Data)
		}
	default:
		t.Error("no new_report alert broadcast")
	}
}

func TestSubmitReportForm(t *testing.T) {
	f := newAPIFixture(t)

	form := url.Values{
		"type":        {"Habitat Threat"},
		"location":    {"Mau Forest"},
		"urgency":     {"low"},
		"description": {"Fresh stumps along the river"},
	}
	rec := f.do("POST", "/api/reports", "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp protocol.SubmitReportResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Reward == nil || resp.Reward.Badge != "Habitat Guardian" {
		t.Errorf("reward = %+v", resp.Reward)
	}
}

func TestSubmitReportMissingFields(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("POST", "/api/reports", "application/json", `{"type":"Wildlife Sighting","location":"Tsavo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp protocol.Ack
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Success || resp.Message != "Missing required fields" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestPublicReadEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	var reports []protocol.PublicReport
	json.NewDecoder(f.do("GET", "/api/reports", "", "").Body).Decode(&reports)
	if len(reports) != 3 {
		t.Errorf("public reports = %d, want 3", len(reports))
	}

	var board []protocol.LeaderboardEntry
	json.NewDecoder(f.do("GET", "/api/leaderboard", "", "").Body).Decode(&board)
	if len(board) != 5 || board[0].Name != "Samuel Kiptoo" {
		t.Errorf("leaderboard = %+v", board)
	}

	var stats protocol.SiteStats
	json.NewDecoder(f.do("GET", "/api/stats", "", "").Body).Decode(&stats)
	if stats.TotalReports != 15247+3 || stats.RecentActivity.LastDay != 3 {
		t.Errorf("stats = %+v", stats)
	}

	rec := f.do("GET", "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"OK"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestContactHandler(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("POST", "/api/contact", "application/json", `{"name":"Amina","email":"amina@example.org","message":"How do I volunteer?"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = f.do("POST", "/api/contact", "application/json", `{"name":"Amina"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUSSDHandler(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		text string
		want string
	}{
		{"", "CON WildGuard USSD Menu:"},
		{"1", "CON Select Animal:"},
		{"2", "CON Report Poaching/Threat:"},
		{"5", "END Your WildGuard Rewards:"},
		{"1*3", "END Thank you for using WildGuard!"},
	}
	for _, tt := range tests {
		form := url.Values{"text": {tt.text}}
		rec := f.do("POST", "/api/ussd", "application/x-www-form-urlencoded", form.Encode())
		if !strings.HasPrefix(rec.Body.String(), tt.want) {
			t.Errorf("text %q: reply = %q, want prefix %q", tt.text, rec.Body.String(), tt.want)
		}
	}

	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(map[string]string{"text": "2"})
	rec := f.do("POST", "/api/ussd", "application/json", buf.String())
	if !strings.HasPrefix(rec.Body.String(), "CON Report Poaching/Threat:") {
		t.Errorf("json reply = %q", rec.Body.String())
	}
}
