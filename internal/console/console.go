// internal/console/console.go
package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalnine/wildguard/internal/config"
)

// Console is the rangers operations console: the polling refresh loop, the
// live alert channel and the review side-channel around one Board.
type Console struct {
	cfg       *config.ConsoleConfig
	log       log.Interface
	client    *Client
	board     *Board
	refresher *Refresher
	alerts    *AlertChannel
	metrics   *Metrics
	registry  *prometheus.Registry

	channel PushChannel
	timers  Timers
}

// Option customizes a Console
type Option func(*Console)

// WithPushChannel replaces the SSE subscription
func WithPushChannel(pc PushChannel) Option {
	return func(c *Console) { c.channel = pc }
}

// WithTimers replaces the wall-clock timers
func WithTimers(t Timers) Option {
	return func(c *Console) { c.timers = t }
}

// WithRegistry registers metrics on reg instead of a private registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Console) { c.registry = reg }
}

// New creates a console for cfg
func New(cfg *config.ConsoleConfig, logger log.Interface, opts ...Option) *Console {
	c := &Console{
		cfg:    cfg,
		log:    logger,
		client: NewClient(cfg.APIURL, cfg.RequestTimeout),
		board:  NewBoard(cfg.AlertCapacity),
		timers: systemTimers{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	if c.channel == nil {
		c.channel = NewSSEChannel(c.client.BaseURL()+"/api/rangers/alerts/stream", &http.Client{})
	}

	c.metrics = NewMetrics(c.registry)
	c.refresher = NewRefresher(c.client, c.board, c.metrics, c.timers, logger.WithField("component", "refresh"),
		cfg.PollInterval, cfg.ReportLimit)
	c.alerts = NewAlertChannel(c.channel, c.board, c.refresher, c.timers, c.metrics,
		logger.WithField("component", "alerts"), cfg.ReconnectDelay, cfg.AlertRefreshDelay)
	return c
}

// Board returns the console's display state
func (c *Console) Board() *Board { return c.board }

// Refresher returns the polling refresh loop
func (c *Console) Refresher() *Refresher { return c.refresher }

// Alerts returns the live alert channel
func (c *Console) Alerts() *AlertChannel { return c.alerts }

// Registry returns the metrics registry
func (c *Console) Registry() *prometheus.Registry { return c.registry }

// Start loads every view once, then starts the alert channel and the poll
// ticker in the background. They stop when ctx is done.
func (c *Console) Start(ctx context.Context) {
	c.log.WithField("api", c.client.BaseURL()).Info("rangers console initializing")

	c.refresher.RefreshAll(ctx)
	if !c.board.Snapshot().Connected {
		c.log.Warn("API unavailable, running in offline mode with fallback data")
	}

	c.board.SetAlertStatus("Connecting to real-time alerts", LevelWarning, time.Now())
	go c.alerts.Run(ctx)
	go c.refresher.Run(ctx)

	c.log.WithField("interval", c.cfg.PollInterval.String()).Info("rangers console ready")
}

// Run starts the console and serves the web UI until ctx is done
func (c *Console) Run(ctx context.Context) error {
	c.Start(ctx)

	server := &http.Server{
		Addr:         c.cfg.ListenAddr,
		Handler:      c.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.WithField("addr", c.cfg.ListenAddr).Info("console web UI listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		c.log.Info("console shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown web UI: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("web UI: %w", err)
	}
}

// OpenReview opens the detail view for a report, replacing any open review.
// When the lookup fails the session still opens with whatever the board
// already shows for that id.
func (c *Console) OpenReview(ctx context.Context, reportID string) *ReviewSession {
	s := &ReviewSession{
		reportID: reportID,
		client:   c.client,
		board:    c.board,
		refresh:  c.refresher.RefreshReports,
		log:      c.log.WithField("component", "review"),
	}

	report, err := c.client.Report(ctx, reportID)
	if err != nil {
		c.log.WithError(err).WithField("report", reportID).Warn("loading report details failed")
		if shown, ok := c.board.FindReport(reportID); ok {
			s.report = &shown
		}
	} else {
		s.report = &report
	}

	c.board.activate(s)
	return s
}

// SetFilter changes the report filter and reloads the listing
func (c *Console) SetFilter(ctx context.Context, f ReportFilter) {
	c.board.SetFilter(f)
	c.refresher.RefreshReports(ctx)
}

// RefreshNow reloads reports and threats on operator request
func (c *Console) RefreshNow(ctx context.Context) {
	c.refresher.RefreshReports(ctx)
	c.refresher.RefreshThreats(ctx)
}
