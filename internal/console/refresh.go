// internal/console/refresh.go
package console

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
)

// View names used in logs and metrics
const (
	viewOverview = "overview"
	viewReports  = "reports"
	viewThreats  = "threats"
	viewSensors  = "sensors"
)

// Refresher keeps the four dashboard views fresh. Every fetch stands alone:
// a failure installs that view's fallback dataset and nothing else.
type Refresher struct {
	client   *Client
	board    *Board
	metrics  *Metrics
	timers   Timers
	log      log.Interface
	interval time.Duration
	limit    int
	now      func() time.Time
}

// NewRefresher creates a refresher polling every interval
func NewRefresher(client *Client, board *Board, metrics *Metrics, timers Timers, logger log.Interface, interval time.Duration, limit int) *Refresher {
	return &Refresher{
		client:   client,
		board:    board,
		metrics:  metrics,
		timers:   timers,
		log:      logger,
		interval: interval,
		limit:    limit,
		now:      time.Now,
	}
}

// Run polls until ctx is done. The first cycle is expected to have been run
// by the caller; ticks start one interval from now. A tick never waits for
// the previous cycle.
func (r *Refresher) Run(ctx context.Context) {
	tick, stop := r.timers.Tick(r.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			go r.RefreshAll(ctx)
		}
	}
}

// RefreshAll runs the four fetches concurrently and waits for them
func (r *Refresher) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, fetch := range []func(context.Context){
		r.RefreshOverview,
		r.RefreshReports,
		r.RefreshThreats,
		r.RefreshSensors,
	} {
		wg.Add(1)
		go func(fetch func(context.Context)) {
			defer wg.Done()
			fetch(ctx)
		}(fetch)
	}
	wg.Wait()
}

// RefreshOverview updates the overview counters
func (r *Refresher) RefreshOverview(ctx context.Context) {
	stats, err := r.client.Overview(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.fellBack(viewOverview, err)
		r.board.SetOverview(FallbackStats(), SourceFallback, r.now(), err)
		return
	}
	r.loaded(viewOverview)
	r.board.SetOverview(stats, SourceLive, r.now(), nil)
}

// RefreshReports updates the report listing using the board's active filter
func (r *Refresher) RefreshReports(ctx context.Context) {
	f := r.board.Filter()
	reports, err := r.client.Reports(ctx, ReportQuery{
		Status:   f.Status,
		Priority: f.Priority,
		Limit:    r.limit,
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.fellBack(viewReports, err)
		r.board.SetReports(FallbackReports(r.now()), SourceFallback, r.now(), err)
		return
	}
	r.loaded(viewReports)
	r.log.WithField("count", len(reports)).Debug("reports loaded")
	r.board.SetReports(reports, SourceLive, r.now(), nil)
}

// RefreshThreats updates the threat table
func (r *Refresher) RefreshThreats(ctx context.Context) {
	threats, err := r.client.Threats(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.fellBack(viewThreats, err)
		r.board.SetThreats(FallbackThreats(), SourceFallback, r.now(), err)
		return
	}
	r.loaded(viewThreats)
	r.board.SetThreats(threats, SourceLive, r.now(), nil)
}

// RefreshSensors updates the sensor summary
func (r *Refresher) RefreshSensors(ctx context.Context) {
	overview, err := r.client.Sensors(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.fellBack(viewSensors, err)
		r.board.SetSensors(FallbackSensors(), SourceFallback, r.now(), err)
		return
	}
	r.loaded(viewSensors)
	r.board.SetSensors(overview, SourceLive, r.now(), nil)
}

func (r *Refresher) loaded(view string) {
	r.metrics.Fetches.WithLabelValues(view, outcomeLive).Inc()
}

func (r *Refresher) fellBack(view string, err error) {
	r.metrics.Fetches.WithLabelValues(view, outcomeFallback).Inc()
	r.log.WithError(err).WithField("view", view).Warn("fetch failed, showing fallback data")
}
