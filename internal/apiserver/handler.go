// internal/apiserver/handler.go
package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/signalnine/wildguard/internal/protocol"
)

const (
	maxBodyBytes     = 1 << 20
	maxReportLimit   = 100
	publicListLimit  = 50
	submissionCredit = 50
)

// API serves the rangers and public-site endpoints
type API struct {
	db      *DB
	hub     *Hub
	metrics *Metrics
	log     log.Interface
	now     func() time.Time
}

// NewAPI creates the endpoint handlers
func NewAPI(db *DB, hub *Hub, metrics *Metrics, logger log.Interface) *API {
	return &API{
		db:      db,
		hub:     hub,
		metrics: metrics,
		log:     logger,
		now:     time.Now,
	}
}

// Register adds every endpoint to mux
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)

	mux.HandleFunc("GET /api/rangers/dashboard", a.handleDashboard)
	mux.HandleFunc("GET /api/rangers/reports", a.handleRangerReports)
	mux.HandleFunc("POST /api/rangers/reports/{id}/verify", a.handleVerify)
	mux.HandleFunc("GET /api/sensors/network", a.handleSensors)
	mux.Handle("GET /api/rangers/alerts/stream", a.hub)

	mux.HandleFunc("GET /api/reports", a.handlePublicReports)
	mux.HandleFunc("POST /api/reports", a.handleSubmitReport)
	mux.HandleFunc("GET /api/leaderboard", a.handleLeaderboard)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	mux.HandleFunc("POST /api/contact", a.handleContact)
	mux.HandleFunc("POST /api/ussd", a.handleUSSD)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *API) internalError(w http.ResponseWriter, err error, msg string) {
	a.log.WithError(err).Error(msg)
	writeJSON(w, http.StatusInternalServerError, protocol.Ack{Success: false, Message: "Internal server error"})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "WildGuard server is running",
	})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := a.db.Stats(r.Context(), a.now())
	if err != nil {
		a.internalError(w, err, "computing dashboard stats")
		return
	}
	writeJSON(w, http.StatusOK, protocol.DashboardResponse{
		Stats:         &stats,
		ThreatSummary: &protocol.ThreatSummary{Recommendations: threatRecommendations()},
	})
}

func (a *API) handleRangerReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ReportQuery{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		ReportID: q.Get("reportId"),
		Limit:    20,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			failed, none := false, []protocol.Report{}
			writeJSON(w, http.StatusBadRequest, protocol.ReportsResponse{Success: &failed, Reports: &none, Error: "limit must be a positive integer"})
			return
		}
		query.Limit = min(n, maxReportLimit)
	}

	reports, err := a.db.ListReports(r.Context(), query)
	if err != nil {
		a.internalError(w, err, "listing reports")
		return
	}
	ok := true
	writeJSON(w, http.StatusOK, protocol.ReportsResponse{Success: &ok, Reports: &reports})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var vr protocol.VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&vr); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.VerifyResponse{Success: false, Error: "Invalid JSON"})
		return
	}
	if _, ok := statusForAction[vr.Action]; !ok {
		writeJSON(w, http.StatusBadRequest, protocol.VerifyResponse{Success: false, Error: "Invalid action"})
		return
	}

	report, err := a.db.VerifyReport(r.Context(), id, vr, a.now())
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, protocol.VerifyResponse{Success: false, Error: "Report not found"})
		return
	}
	if err != nil {
		a.log.WithError(err).WithField("report", id).Error("verifying report")
		writeJSON(w, http.StatusInternalServerError, protocol.VerifyResponse{Success: false, Error: "Internal server error"})
		return
	}

	a.metrics.Verifications.WithLabelValues(vr.Action).Inc()
	a.log.WithFields(log.Fields{
		"report": id,
		"action": vr.Action,
		"status": report.Status,
	}).Info("report verified")
	writeJSON(w, http.StatusOK, protocol.VerifyResponse{Success: true, Report: &report})
}

func (a *API) handleSensors(w http.ResponseWriter, r *http.Request) {
	overview := sensorOverview()
	writeJSON(w, http.StatusOK, protocol.SensorNetworkResponse{Success: true, Overview: &overview})
}

func (a *API) handlePublicReports(w http.ResponseWriter, r *http.Request) {
	reports, err := a.db.ListPublicReports(r.Context(), publicListLimit)
	if err != nil {
		a.internalError(w, err, "listing public reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// decodeSubmission accepts the public form either as JSON or url-encoded
func decodeSubmission(r *http.Request) (protocol.SubmitReportRequest, error) {
	var req protocol.SubmitReportRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req = protocol.SubmitReportRequest{
			Type:        r.PostFormValue("type"),
			Animal:      r.PostFormValue("animal"),
			Location:    r.PostFormValue("location"),
			Urgency:     r.PostFormValue("urgency"),
			Description: r.PostFormValue("description"),
			Contact:     r.PostFormValue("contact"),
		}
		req.Latitude = formFloat(r, "latitude")
		req.Longitude = formFloat(r, "longitude")
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func formFloat(r *http.Request, key string) *float64 {
	f, err := strconv.ParseFloat(r.PostFormValue(key), 64)
	if err != nil {
		return nil
	}
	return &f
}

func newPublicReportID() string {
	return "WG-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (a *API) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeSubmission(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Ack{Success: false, Message: "Invalid request body"})
		return
	}
	if req.Type == "" || req.Location == "" || req.Urgency == "" || req.Description == "" {
		writeJSON(w, http.StatusBadRequest, protocol.Ack{Success: false, Message: "Missing required fields"})
		return
	}

	now := a.now().UTC()
	id := newPublicReportID()

	public := protocol.PublicReport{
		ID:          id,
		Type:        req.Type,
		Animal:      req.Animal,
		Location:    req.Location,
		Urgency:     req.Urgency,
		Description: req.Description,
		Contact:     req.Contact,
		Timestamp:   now,
		Status:      protocol.StatusPending,
	}
	ranger := rangerReport(id, req, now)
	if err := a.db.SubmitPublicReport(r.Context(), public, ranger); err != nil {
		a.internalError(w, err, "storing report")
		return
	}

	alert := protocol.NewReportAlert{ReportID: id, Type: ranger.Type}
	if ranger.Location != nil {
		alert.Location = protocol.AlertPoint{Lat: ranger.Location.Latitude, Lng: ranger.Location.Longitude}
	}
	if err := a.hub.Publish(protocol.AlertNewReport, alert); err != nil {
		a.log.WithError(err).Warn("publishing new report alert")
	}

	a.metrics.Submissions.Inc()
	a.log.WithFields(log.Fields{
		"report":  id,
		"type":    req.Type,
		"urgency": req.Urgency,
	}).Info("public report submitted")

	writeJSON(w, http.StatusOK, protocol.SubmitReportResponse{
		Success:  true,
		Message:  "Report submitted successfully",
		ReportID: id,
		Reward: &protocol.Reward{
			Credits: submissionCredit,
			Badge:   rewardBadge(req.Type),
		},
	})
}

// rangerReport converts a public submission into a pending rangers report
func rangerReport(id string, req protocol.SubmitReportRequest, at time.Time) protocol.Report {
	r := protocol.Report{
		ID:          id,
		Type:        publicTypes[req.Type],
		Priority:    publicUrgency[strings.ToLower(req.Urgency)],
		Status:      protocol.StatusPending,
		Description: req.Description,
		ReportedAt:  at,
	}
	if r.Type == "" {
		r.Type = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(req.Type)), " ", "_")
	}
	if r.Priority == "" {
		r.Priority = protocol.PriorityMedium
	}
	if req.Animal != "" {
		r.Description = req.Animal + ": " + r.Description
	}
	if req.Latitude != nil && req.Longitude != nil {
		r.Location = &protocol.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	if req.Contact != "" {
		r.Reporter = &protocol.Reporter{PhoneNumber: req.Contact, TrustScore: 50}
	}
	return r
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, leaderboard)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	activity, err := a.db.PublicActivity(r.Context(), a.now())
	if err != nil {
		a.internalError(w, err, "computing public activity")
		return
	}
	stats := baseSiteStats
	stats.TotalReports += activity.LastWeek
	stats.RecentActivity = activity
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req protocol.ContactRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, protocol.Ack{Success: false, Message: "Invalid request body"})
			return
		}
		req = protocol.ContactRequest{
			Name:    r.PostFormValue("name"),
			Email:   r.PostFormValue("email"),
			Subject: r.PostFormValue("subject"),
			Message: r.PostFormValue("message"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Ack{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, protocol.Ack{Success: false, Message: "Missing required fields"})
		return
	}
	if err := a.db.InsertContact(r.Context(), req, a.now()); err != nil {
		a.internalError(w, err, "storing contact message")
		return
	}

	a.log.WithField("email", req.Email).Info("contact message received")
	writeJSON(w, http.StatusOK, protocol.Ack{
		Success: true,
		Message: "Thank you for your message! We will get back to you within 24 hours.",
	})
}

func (a *API) handleUSSD(w http.ResponseWriter, r *http.Request) {
	var text string
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		text = r.PostFormValue("text")
	} else {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		text = body.Text
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(ussdReply(text)))
}
