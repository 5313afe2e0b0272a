// internal/console/timers.go
package console

import "time"

// Timers schedules the console's delayed work: the poll tick, the reconnect
// wait and the alert-triggered refresh. Tests substitute a fake to control time.
type Timers interface {
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func())
	// Tick delivers a value every d until stop is called
	Tick(d time.Duration) (c <-chan time.Time, stop func())
}

type systemTimers struct{}

func (systemTimers) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (systemTimers) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

func (systemTimers) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
