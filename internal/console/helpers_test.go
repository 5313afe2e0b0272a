// internal/console/helpers_test.go
package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/signalnine/wildguard/internal/config"
	"github.com/signalnine/wildguard/internal/protocol"
)

func testLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.DebugLevel}, h
}

func testConfig(apiURL string) *config.ConsoleConfig {
	return &config.ConsoleConfig{
		APIURL:            apiURL,
		ListenAddr:        "127.0.0.1:0",
		PollInterval:      time.Hour,
		ReconnectDelay:    5 * time.Second,
		AlertRefreshDelay: time.Second,
		AlertCapacity:     10,
		ReportLimit:       20,
		RequestTimeout:    5 * time.Second,
		LogLevel:          "debug",
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var liveReport = protocol.Report{
	ID:          "R-1",
	Type:        "wildlife_sighting",
	Priority:    protocol.PriorityHigh,
	Status:      protocol.StatusPending,
	Location:    &protocol.Location{Latitude: -1.4061, Longitude: 35.0112},
	Description: "Elephant herd crossing the main road",
	ReportedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	Reporter:    &protocol.Reporter{PhoneNumber: "+254700000001", TrustScore: 77},
}

// fakeAPI is a rangers API whose endpoints can be failed one at a time
type fakeAPI struct {
	*httptest.Server

	mu            sync.Mutex
	failDashboard bool
	failReports   bool
	failSensors   bool
	verifyStatus  int
	verifyBody    interface{}
	stallReports  chan struct{} // listings block until closed
	listCalls     int           // report listings without reportId
	lookupCalls   int
	dashCalls     int
	sensorCalls   int
	lastQuery     map[string]string
	verifyBodies  []protocol.VerifyRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{verifyStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rangers/dashboard", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		fail := api.failDashboard
		api.dashCalls++
		api.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, protocol.DashboardResponse{
			Stats: &protocol.DashboardStats{TotalReports: 4021, PendingVerifications: 7, VerifiedToday: 2, UrgentReports: 1},
			ThreatSummary: &protocol.ThreatSummary{Recommendations: []protocol.ThreatPrediction{{
				Type:       "fire_risk",
				RiskScore:  0.42,
				Location:   protocol.Location{Latitude: -1.5, Longitude: 35.1},
				TimeWindow: "next_24h",
				Confidence: 0.6,
			}}},
		})
	})
	mux.HandleFunc("GET /api/rangers/reports", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		fail, stall := api.failReports, api.stallReports
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		api.lastQuery = q
		if q["reportId"] != "" {
			api.lookupCalls++
		} else {
			api.listCalls++
		}
		api.mu.Unlock()

		if stall != nil && q["reportId"] == "" {
			select {
			case <-stall:
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		reports := []protocol.Report{liveReport}
		if id := q["reportId"]; id != "" && id != liveReport.ID {
			reports = []protocol.Report{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "reports": reports})
	})
	mux.HandleFunc("POST /api/rangers/reports/{id}/verify", func(w http.ResponseWriter, r *http.Request) {
		var vr protocol.VerifyRequest
		json.NewDecoder(r.Body).Decode(&vr)

		api.mu.Lock()
		api.verifyBodies = append(api.verifyBodies, vr)
		status, body := api.verifyStatus, api.verifyBody
		api.mu.Unlock()

		if body == nil {
			body = protocol.VerifyResponse{Success: true}
		}
		writeJSON(w, status, body)
	})
	mux.HandleFunc("GET /api/sensors/network", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		fail := api.failSensors
		api.sensorCalls++
		api.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, protocol.SensorNetworkResponse{
			Success:  true,
			Overview: &protocol.SensorOverview{Total: 40, Online: 38, Alerting: 1, LowBattery: 3},
		})
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

// fetches counts requests per endpoint: dashboard, report listings, sensors
func (a *fakeAPI) fetches() (dash, list, sensors int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dashCalls, a.listCalls, a.sensorCalls
}

func (a *fakeAPI) calls() (list, lookup int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listCalls, a.lookupCalls
}

// afterCall is one pending Timers.After wait
type afterCall struct {
	d  time.Duration
	ch chan time.Time
}

// fakeTimers hands every wait to the test instead of the clock
type fakeTimers struct {
	afters chan afterCall
	ticks  chan time.Time // unbuffered, a send completes only when the ticker is read

	mu        sync.Mutex
	funcs     []func()
	delays    []time.Duration
	tickEvery time.Duration
	stopped   bool
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{afters: make(chan afterCall, 8), ticks: make(chan time.Time)}
}

func (f *fakeTimers) Tick(d time.Duration) (<-chan time.Time, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickEvery = d
	return f.ticks, func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	}
}

// tick delivers one tick, failing if nothing reads it in time
func (f *fakeTimers) tick(t *testing.T) {
	t.Helper()
	select {
	case f.ticks <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("tick not received")
	}
}

func (f *fakeTimers) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	f.afters <- afterCall{d: d, ch: ch}
	return ch
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funcs = append(f.funcs, fn)
	f.delays = append(f.delays, d)
}

// fire runs every scheduled func and forgets them
func (f *fakeTimers) fire() int {
	f.mu.Lock()
	funcs := f.funcs
	f.funcs = nil
	f.mu.Unlock()
	for _, fn := range funcs {
		fn()
	}
	return len(funcs)
}

func (f *fakeTimers) scheduled() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

// fakeSession is one Listen call on a fakeChannel
type fakeSession struct {
	h   EventHandler
	end chan error
}

// fakeChannel publishes every subscription so the test can drive it
type fakeChannel struct {
	sessions chan *fakeSession
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{sessions: make(chan *fakeSession, 8)}
}

func (f *fakeChannel) Listen(ctx context.Context, h EventHandler) {
	s := &fakeSession{h: h, end: make(chan error, 1)}
	f.sessions <- s
	select {
	case <-ctx.Done():
	case err := <-s.end:
		h.OnError(err)
	}
}

func (f *fakeChannel) next(t *testing.T) *fakeSession {
	t.Helper()
	select {
	case s := <-f.sessions:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription")
		return nil
	}
}

// countingRefresh records alert-triggered refreshes
type countingRefresh struct {
	mu      sync.Mutex
	reports int
	threats int
}

func (c *countingRefresh) RefreshReports(ctx context.Context) {
	c.mu.Lock()
	c.reports++
	c.mu.Unlock()
}

func (c *countingRefresh) RefreshThreats(ctx context.Context) {
	c.mu.Lock()
	c.threats++
	c.mu.Unlock()
}

func (c *countingRefresh) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reports, c.threats
}

// waitFor polls cond until it holds or two seconds pass
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
