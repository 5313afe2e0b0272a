// internal/apiserver/emitter.go
package apiserver

import (
	"context"
	"time"

	"github.com/apex/log"
)

// Emitter publishes the sample alerts in turn so a console has something live to show
type Emitter struct {
	hub      *Hub
	interval time.Duration
	log      log.Interface
	next     int
}

// NewEmitter creates an emitter publishing every interval
func NewEmitter(hub *Hub, interval time.Duration, logger log.Interface) *Emitter {
	return &Emitter{hub: hub, interval: interval, log: logger}
}

// Run emits until ctx is done
func (e *Emitter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Emit()
		}
	}
}

// Emit publishes the next sample alert
func (e *Emitter) Emit() {
	sample := sampleAlerts[e.next%len(sampleAlerts)]
	e.next++

	if err := e.hub.Publish(sample.Type, sample.Data); err != nil {
		e.log.WithError(err).Error("encoding sample alert")
		return
	}
	e.log.WithField("type", sample.Type).Debug("sample alert emitted")
}
