// internal/apiserver/hub.go
package apiserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/sse"
	"github.com/signalnine/wildguard/internal/protocol"
)

// subscriberBuffer is how many events a subscriber may fall behind before it is dropped
const subscriberBuffer = 16

// Hub fans alert events out to every connected stream subscriber
type Hub struct {
	mu      sync.Mutex
	clients map[chan protocol.AlertEvent]struct{}

	metrics *Metrics
	log     log.Interface
}

// NewHub creates an empty hub
func NewHub(metrics *Metrics, logger log.Interface) *Hub {
	return &Hub{
		clients: make(map[chan protocol.AlertEvent]struct{}),
		metrics: metrics,
		log:     logger,
	}
}

// Subscribe registers a new subscriber. The channel is closed when the
// subscriber unsubscribes or is dropped for falling behind.
func (h *Hub) Subscribe() chan protocol.AlertEvent {
	ch := make(chan protocol.AlertEvent, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.Subscribers.Set(float64(n))
	h.log.WithField("subscribers", n).Debug("stream subscriber connected")
	return ch
}

// Unsubscribe removes a subscriber. It is safe to call after a drop.
func (h *Hub) Unsubscribe(ch chan protocol.AlertEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.Subscribers.Set(float64(n))
	h.log.WithField("subscribers", n).Debug("stream subscriber disconnected")
}

// Len returns the number of subscribers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast delivers ev to every subscriber without blocking
func (h *Hub) Broadcast(ev protocol.AlertEvent) {
	h.mu.Lock()
	dropped := 0
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, ch)
			close(ch)
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.Broadcasts.WithLabelValues(ev.Type).Inc()
	h.metrics.Subscribers.Set(float64(n))
	if dropped > 0 {
		h.metrics.DroppedSubscribers.Add(float64(dropped))
		h.log.WithField("dropped", dropped).Warn("dropped slow stream subscribers")
	}
}

// Publish wraps a typed payload in an AlertEvent and broadcasts it
func (h *Hub) Publish(eventType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.Broadcast(protocol.AlertEvent{Type: eventType, Data: raw})
	return nil
}

// ServeHTTP streams events to one subscriber until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.Encode(w, sse.Event{Data: ev}); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
