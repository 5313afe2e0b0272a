// internal/console/channel.go
package console

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/apex/log"
)

// ChannelState is the alert channel's connection state
type ChannelState int

const (
	StateConnecting ChannelState = iota
	StateOpen
	StateError
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status lines shown for the alert channel
const (
	statusConnected    = "Connected to real-time alerts"
	statusDisconnected = "Alert stream disconnected"
)

// refreshTarget is the slice of the refresher an alert can trigger
type refreshTarget interface {
	RefreshReports(ctx context.Context)
	RefreshThreats(ctx context.Context)
}

// AlertChannel keeps a push-channel subscription alive forever and feeds
// every event into the board's alert list. Delivery is best effort: after an
// error it waits reconnectDelay and subscribes from scratch.
type AlertChannel struct {
	channel        PushChannel
	board          *Board
	refresh        refreshTarget
	timers         Timers
	metrics        *Metrics
	log            log.Interface
	reconnectDelay time.Duration
	refreshDelay   time.Duration
	now            func() time.Time

	mu    sync.Mutex
	state ChannelState
}

// NewAlertChannel wires an alert channel
func NewAlertChannel(channel PushChannel, board *Board, refresh refreshTarget, timers Timers,
	metrics *Metrics, logger log.Interface, reconnectDelay, refreshDelay time.Duration) *AlertChannel {
	if timers == nil {
		timers = systemTimers{}
	}
	return &AlertChannel{
		channel:        channel,
		board:          board,
		refresh:        refresh,
		timers:         timers,
		metrics:        metrics,
		log:            logger,
		reconnectDelay: reconnectDelay,
		refreshDelay:   refreshDelay,
		now:            time.Now,
	}
}

// State returns the current connection state
func (a *AlertChannel) State() ChannelState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *AlertChannel) setState(s ChannelState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run subscribes, and resubscribes after every error, until ctx is done
func (a *AlertChannel) Run(ctx context.Context) {
	for {
		a.setState(StateConnecting)
		a.channel.Listen(ctx, &subscription{ch: a, ctx: ctx})
		if ctx.Err() != nil {
			return
		}
		a.setState(StateError)

		select {
		case <-ctx.Done():
			return
		case <-a.timers.After(a.reconnectDelay):
		}
		a.metrics.Reconnects.Inc()
		a.log.Info("resubscribing to alert stream")
	}
}

// subscription is the handler for one connection. A fresh one is created per
// Listen so nothing from a dead connection leaks into the next.
type subscription struct {
	ch     *AlertChannel
	ctx    context.Context
	failed bool
}

func (s *subscription) OnOpen() {
	a := s.ch
	a.setState(StateOpen)
	a.board.SetAlertStatus(statusConnected, LevelSuccess, a.now())
	a.log.Info("real-time alerts connected")
}

func (s *subscription) OnMessage(data []byte) {
	a := s.ch

	alert, err := DecodeAlert(data)
	if err != nil {
		a.metrics.AlertsDropped.Inc()
		a.log.WithError(err).WithField("payload", truncate(string(data), 200)).Warn("dropping alert event")
		return
	}

	entry, err := RenderAlert(alert, a.now())
	if err != nil {
		a.metrics.AlertsDropped.Inc()
		a.log.WithError(err).Warn("dropping alert event")
		return
	}

	visible := a.board.InsertAlert(entry)
	a.metrics.AlertEvents.WithLabelValues(alert.Kind()).Inc()
	a.metrics.AlertsVisible.Set(float64(visible))

	if alert.TriggersRefresh() {
		ctx := s.ctx
		a.timers.AfterFunc(a.refreshDelay, func() {
			if ctx.Err() != nil {
				return
			}
			a.refresh.RefreshReports(ctx)
			a.refresh.RefreshThreats(ctx)
		})
	}
}

func (s *subscription) OnError(err error) {
	if s.failed {
		return
	}
	s.failed = true

	a := s.ch
	a.setState(StateError)
	a.board.SetAlertStatus(statusDisconnected, LevelError, a.now())
	a.log.WithError(err).WithField("retry_in", a.reconnectDelay.String()).Error("real-time alerts error")
}

// truncate shortens s to max runes
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
