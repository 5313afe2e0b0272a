// internal/console/client.go
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/signalnine/wildguard/internal/protocol"
)

// Failure classes for API calls. Callers use errors.Is; the refresh loop
// treats all three the same way.
var (
	ErrTransport      = errors.New("transport failure")
	ErrStatus         = errors.New("unexpected status")
	ErrShape          = errors.New("unexpected response shape")
	ErrReportNotFound = errors.New("report not found")
)

// VerifyError is a verification rejected by the API. Its message is the
// API's error text, unchanged.
type VerifyError struct {
	ReportID string
	Message  string
}

func (e *VerifyError) Error() string {
	return e.Message
}

// ReportQuery parameterizes the report listing
type ReportQuery struct {
	Status   string
	Priority string
	Limit    int
	ReportID string
}

func (q ReportQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.ReportID != "" {
		v.Set("reportId", q.ReportID)
	}
	return v
}

// Client talks to the rangers API and turns every response into either a
// typed payload or a classified error.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an API client. A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Overview fetches the dashboard counters. The stats object is required.
func (c *Client) Overview(ctx context.Context) (protocol.DashboardStats, error) {
	var resp protocol.DashboardResponse
	if err := c.getJSON(ctx, "/api/rangers/dashboard", nil, &resp); err != nil {
		return protocol.DashboardStats{}, err
	}
	if resp.Stats == nil {
		return protocol.DashboardStats{}, fmt.Errorf("%w: dashboard response has no stats", ErrShape)
	}
	return *resp.Stats, nil
}

// Threats fetches the threat recommendations from the dashboard summary
func (c *Client) Threats(ctx context.Context) ([]protocol.ThreatPrediction, error) {
	var resp protocol.DashboardResponse
	if err := c.getJSON(ctx, "/api/rangers/dashboard", nil, &resp); err != nil {
		return nil, err
	}
	if resp.ThreatSummary == nil || resp.ThreatSummary.Recommendations == nil {
		return nil, fmt.Errorf("%w: dashboard response has no threatSummary.recommendations", ErrShape)
	}
	return resp.ThreatSummary.Recommendations, nil
}

// Reports fetches the report listing. The reports array is required and an
// explicit success=false is a failure.
func (c *Client) Reports(ctx context.Context, q ReportQuery) ([]protocol.Report, error) {
	var resp protocol.ReportsResponse
	if err := c.getJSON(ctx, "/api/rangers/reports", q.values(), &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("%w: reports response has success=false", ErrShape)
	}
	if resp.Reports == nil {
		return nil, fmt.Errorf("%w: reports response has no reports array", ErrShape)
	}
	return *resp.Reports, nil
}

// Report fetches a single report by id through the listing endpoint
func (c *Client) Report(ctx context.Context, id string) (protocol.Report, error) {
	reports, err := c.Reports(ctx, ReportQuery{ReportID: id})
	if err != nil {
		return protocol.Report{}, err
	}
	for _, r := range reports {
		if r.ID == id {
			return r, nil
		}
	}
	return protocol.Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
}

// Sensors fetches the sensor fleet overview
func (c *Client) Sensors(ctx context.Context) (protocol.SensorOverview, error) {
	var resp protocol.SensorNetworkResponse
	if err := c.getJSON(ctx, "/api/sensors/network", nil, &resp); err != nil {
		return protocol.SensorOverview{}, err
	}
	if !resp.Success || resp.Overview == nil {
		return protocol.SensorOverview{}, fmt.Errorf("%w: sensor response not successful", ErrShape)
	}
	return *resp.Overview, nil
}

// Verify posts a verification decision. A response with success=false is
// returned as *VerifyError.
func (c *Client) Verify(ctx context.Context, reportID string, vr protocol.VerifyRequest) (*protocol.VerifyResponse, error) {
	body, err := json.Marshal(vr)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + "/api/rangers/reports/" + url.PathEscape(reportID) + "/verify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	// Rejections come back with 4xx and a JSON body carrying the reason
	var result protocol.VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: HTTP %d", ErrStatus, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("verification failed with HTTP %d", resp.StatusCode)
		}
		return &result, &VerifyError{ReportID: reportID, Message: msg}
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}
	return nil
}
