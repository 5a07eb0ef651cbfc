// Package events fans run and job events out to SSE subscribers.
package events

import "sync"

// subscriberBuffer bounds how far a slow SSE client may lag before events
// are dropped for it.
const subscriberBuffer = 16

// Hub is a broadcast fan-out. Publishing never blocks; a subscriber that
// cannot keep up loses events rather than stalling the run.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan string]struct{})}
}

// Subscribe registers a new listener. The caller must Unsubscribe the
// returned channel when done; the hub never closes it on its own.
func (h *Hub) Subscribe() chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes the channel.
func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default: // subscriber lagging, drop
		}
	}
}
