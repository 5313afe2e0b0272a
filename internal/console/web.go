// internal/console/web.go
package console

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalnine/wildguard/internal/protocol"
)

// Handler returns the web UI routes
func (c *Console) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /alerts", c.handleAlerts)
	mux.HandleFunc("POST /filters", c.handleFilters)
	mux.HandleFunc("POST /refresh", c.handleRefresh)
	mux.HandleFunc("GET /reports/{id}", c.handleOpenReview)
	mux.HandleFunc("POST /reports/{id}/verify", c.handleVerify)
	mux.HandleFunc("POST /review/close", c.handleCloseReview)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return mux
}

func (c *Console) handleIndex(w http.ResponseWriter, r *http.Request) {
	c.renderPage(w, http.StatusOK)
}

func (c *Console) renderPage(w http.ResponseWriter, status int) {
	data := pageData{
		Snapshot:   c.board.Snapshot(),
		Statuses:   []string{protocol.StatusPending, protocol.StatusVerified, protocol.StatusRejected, protocol.StatusInvestigating},
		Priorities: []string{protocol.PriorityLow, protocol.PriorityMedium, protocol.PriorityHigh, protocol.PriorityUrgent},
		Actions:    []string{protocol.ActionApprove, protocol.ActionReject, protocol.ActionInvestigate},
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		c.log.WithError(err).Error("rendering dashboard")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (c *Console) handleAlerts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "alerts", c.board.Snapshot().Alerts); err != nil {
		c.log.WithError(err).Error("rendering alerts")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (c *Console) handleFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	c.SetFilter(r.Context(), ReportFilter{
		Status:   strings.TrimSpace(r.PostFormValue("status")),
		Priority: strings.TrimSpace(r.PostFormValue("priority")),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c.RefreshNow(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleOpenReview(w http.ResponseWriter, r *http.Request) {
	c.OpenReview(r.Context(), r.PathValue("id"))
	http.Redirect(w, r, "/#review", http.StatusSeeOther)
}

func (c *Console) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	action := r.PostFormValue("action")
	if !ValidAction(action) {
		http.Error(w, "action must be approve, reject or investigate", http.StatusBadRequest)
		return
	}

	var reward float64
	if v := strings.TrimSpace(r.PostFormValue("rewardAmount")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			http.Error(w, "rewardAmount must be a non-negative number", http.StatusBadRequest)
			return
		}
		reward = f
	}

	s := c.board.Review()
	if s == nil || s.ReportID() != id {
		s = c.OpenReview(r.Context(), id)
	}

	if err := s.Verify(r.Context(), action, r.PostFormValue("notes"), reward); err != nil {
		if errors.Is(err, ErrSessionClosed) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		c.renderPage(w, http.StatusUnprocessableEntity)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleCloseReview(w http.ResponseWriter, r *http.Request) {
	if s := c.board.Review(); s != nil {
		s.Close()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
