package service

import (
	"sync"

	"fridge_monitor"
	"fridge_monitor/internal/metrics"

	"github.com/google/uuid"
)

// subscriberQueue bounds the readings buffered for one live subscriber.
const subscriberQueue = 64

// Hub fans new readings out to live subscribers. A subscriber that falls
// behind loses readings instead of stalling the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan fridge_monitor.Record
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan fridge_monitor.Record)}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (string, <-chan fridge_monitor.Record, func()) {
	id := uuid.NewString()
	ch := make(chan fridge_monitor.Record, subscriberQueue)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

// Publish delivers rec to every subscriber with room in its queue.
func (h *Hub) Publish(rec fridge_monitor.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- rec:
		default:
			metrics.HubDropped.Inc()
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
