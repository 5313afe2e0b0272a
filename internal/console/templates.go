// internal/console/templates.go
package console

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/signalnine/wildguard/internal/protocol"
)

var reportTypeLabels = map[string]string{
	"wildlife_sighting":   "Wildlife Sighting",
	"poaching":            "Poaching Alert",
	"suspicious_activity": "Suspicious Activity",
	"injury":              "Injured Wildlife",
	"illegal_logging":     "Illegal Logging",
	"fire":                "Fire Incident",
	"fence_breach":        "Fence Breach",
}

var threatTypeLabels = map[string]string{
	"poaching_risk":  "Poaching Risk",
	"fire_risk":      "Fire Risk",
	"human_activity": "Human Activity",
}

var timeWindowLabels = map[string]string{
	"next_6h":  "Next 6 hours",
	"next_12h": "Next 12 hours",
	"next_24h": "Next 24 hours",
}

// titleWords turns snake_case into Title Case
func titleWords(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func labelFor(labels map[string]string, s string) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return titleWords(s)
}

// ReportTypeLabel is the display name of a report category
func ReportTypeLabel(t string) string { return labelFor(reportTypeLabels, t) }

// ThreatTypeLabel is the display name of a threat category
func ThreatTypeLabel(t string) string { return labelFor(threatTypeLabels, t) }

func timeWindowLabel(w string) string {
	if l, ok := timeWindowLabels[w]; ok {
		return l
	}
	return w
}

func coords(loc *protocol.Location) string {
	if loc == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
}

var tmplFuncs = template.FuncMap{
	"comma":      func(n int) string { return humanize.Comma(int64(n)) },
	"ago":        humanize.Time,
	"clock":      func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"percent":    func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"reportType": ReportTypeLabel,
	"threatType": ThreatTypeLabel,
	"timeWindow": timeWindowLabel,
	"coords":     coords,
	"threatLoc":  func(l protocol.Location) string { return coords(&l) },
	"truncate":   truncate,
	"selected": func(a, b string) template.HTMLAttr {
		if a == b {
			return "selected"
		}
		return ""
	},
}

// pageData is what the dashboard template renders
type pageData struct {
	Snapshot
	Statuses   []string
	Priorities []string
	Actions    []string
}

var pageTmpl = template.Must(template.New("page").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="15">
<title>WildGuard Rangers</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f4f6f3;color:#1f2a1f}
header{display:flex;justify-content:space-between;align-items:center;padding:12px 24px;background:#2d5016;color:#fff}
main{display:grid;grid-template-columns:3fr 1fr;gap:16px;padding:16px 24px}
section{background:#fff;border-radius:8px;padding:12px 16px;margin-bottom:16px}
table{width:100%;border-collapse:collapse}
td,th{padding:6px 8px;border-bottom:1px solid #e3e8e0;text-align:left;font-size:14px}
.metrics{display:grid;grid-template-columns:repeat(4,1fr);gap:12px}
.metric{background:#fff;border-radius:8px;padding:12px;text-align:center}
.metric b{display:block;font-size:28px}
.online{color:#8fd16a}.offline{color:#f0a04b}
.fallback{font-size:12px;color:#b06d00}
.priority-urgent{color:#c0392b;font-weight:600}.priority-high{color:#e67e22}
.alert{border-left:4px solid #999;padding:6px 8px;margin-bottom:8px;background:#fafafa}
.alert-new_report{border-color:#2980b9}.alert-threat_alert{border-color:#c0392b}.alert-sensor_alert{border-color:#f39c12}
.alert-header{display:flex;justify-content:space-between;font-size:12px;color:#666}
.alert-status.success{color:#27ae60}.alert-status.warning{color:#e67e22}.alert-status.error{color:#c0392b}
.review-error{color:#c0392b}
</style>
</head>
<body>
<header>
  <h1>WildGuard Rangers</h1>
  {{if .Connected}}<span class="online">API connected</span>{{else}}<span class="offline">Offline mode{{with .Overview.Err}} ({{.}}){{end}}</span>{{end}}
</header>
<main>
<div>
  <div class="metrics">
    <div class="metric"><b>{{comma .Overview.Data.TotalReports}}</b>Total reports</div>
    <div class="metric"><b>{{comma .Overview.Data.PendingVerifications}}</b>Pending verification</div>
    <div class="metric"><b>{{comma .Overview.Data.VerifiedToday}}</b>Verified today</div>
    <div class="metric"><b>{{comma .Overview.Data.UrgentReports}}</b>Urgent</div>
  </div>

  <section>
    <h2>Sensor network</h2>
    {{with .Sensors}}
    <p>{{.Data.Online}} of {{.Data.Total}} online, {{.Data.Alerting}} alerting, {{.Data.LowBattery}} low battery
    {{if eq .Source "fallback"}}<span class="fallback">sample data</span>{{end}}</p>
    {{end}}
  </section>

  <section>
    <h2>Reports {{if eq .Reports.Source "fallback"}}<span class="fallback">sample data</span>{{end}}</h2>
    <form method="post" action="/filters">
      <select name="status"><option value="">All statuses</option>
        {{range .Statuses}}<option value="{{.}}" {{selected . $.Filter.Status}}>{{.}}</option>{{end}}
      </select>
      <select name="priority"><option value="">All priorities</option>
        {{range .Priorities}}<option value="{{.}}" {{selected . $.Filter.Priority}}>{{.}}</option>{{end}}
      </select>
      <button type="submit">Apply</button>
    </form>
    <form method="post" action="/refresh"><button type="submit">Refresh</button></form>
    <table>
      <tr><th>Type</th><th>Priority</th><th>Location</th><th>Description</th><th>Reported</th><th>Reporter</th><th></th></tr>
      {{range .Reports.Data}}
      <tr>
        <td>{{reportType .Type}}</td>
        <td><span class="priority-{{.Priority}}">{{.Priority}}</span></td>
        <td>{{coords .Location}}</td>
        <td title="{{.Description}}">{{truncate .Description 50}}</td>
        <td>{{clock .ReportedAt}}</td>
        <td>{{with .Reporter}}{{.PhoneNumber}}<br><small>Trust: {{.TrustScore}}%</small>{{else}}Anonymous{{end}}</td>
        <td><a href="/reports/{{.ID}}">Review</a></td>
      </tr>
      {{else}}
      <tr><td colspan="7">No reports found</td></tr>
      {{end}}
    </table>
  </section>

  <section>
    <h2>Threat predictions {{if eq .Threats.Source "fallback"}}<span class="fallback">sample data</span>{{end}}</h2>
    <table>
      <tr><th>Threat</th><th>Risk</th><th>Location</th><th>Window</th><th>Confidence</th><th>Actions</th></tr>
      {{range .Threats.Data}}
      <tr>
        <td>{{threatType .Type}}</td>
        <td>{{percent .RiskScore}}</td>
        <td>{{threatLoc .Location}}</td>
        <td>{{timeWindow .TimeWindow}}</td>
        <td>{{percent .Confidence}}</td>
        <td>{{range .RecommendedActions}}<span class="priority-{{.Priority}}">{{.Action}}</span> {{end}}</td>
      </tr>
      {{else}}
      <tr><td colspan="6">No current threats detected</td></tr>
      {{end}}
    </table>
  </section>

  {{with .Review}}
  <section id="review">
    <h2>Review {{.ReportID}}</h2>
    {{with .Report}}
      <h3>{{reportType .Type}} - {{.Priority}} priority</h3>
      <p><strong>Location:</strong> {{coords .Location}}</p>
      <p><strong>Description:</strong> {{.Description}}</p>
      <p><strong>Reported:</strong> {{clock .ReportedAt}} ({{ago .ReportedAt}})</p>
      <p><strong>Reporter:</strong> {{with .Reporter}}{{.PhoneNumber}} (Trust: {{.TrustScore}}%){{else}}Anonymous{{end}}</p>
    {{else}}
      <p>Report details unavailable.</p>
    {{end}}
    {{with .Error}}<p class="review-error">{{.}}</p>{{end}}
    <form method="post" action="/reports/{{.ReportID}}/verify">
      <select name="action">{{range $.Actions}}<option value="{{.}}">{{.}}</option>{{end}}</select>
      <textarea name="notes" placeholder="Notes"></textarea>
      <input type="number" name="rewardAmount" min="0" step="any" value="0">
      <button type="submit">Submit</button>
    </form>
    <form method="post" action="/review/close"><button type="submit">Close</button></form>
  </section>
  {{end}}
</div>

<aside>
  <section>
    <h2>Live alerts</h2>
    {{with .AlertStatus}}{{if .Message}}<p class="alert-status {{.Level}}">{{.Message}}</p>{{end}}{{end}}
    {{template "alerts" .Alerts}}
  </section>
</aside>
</main>
</body>
</html>
{{define "alerts"}}<div id="alerts">{{range .}}{{.HTML}}{{else}}<p>No alerts yet</p>{{end}}</div>{{end}}`))
