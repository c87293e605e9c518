// Package realtime is an in-process change-notification hub. It
// replaces the subscribe-on-mount/unsubscribe-on-unmount pattern with
// explicit subscription handles whose release is guaranteed on every
// exit path: Close is idempotent and safe from any goroutine.
package realtime

import (
	"sync"
	"time"
)

// Event is one change notification on a named channel.
type Event struct {
	Channel string    `json:"channel"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

const subscriptionBuffer = 16

// Subscription is a handle to a hub registration. Events arrive on C
// until Close. C is closed when the subscription is released.
type Subscription struct {
	C chan Event

	hub      *Hub
	channels map[string]struct{}
	once     sync.Once
}

// Close releases the subscription and closes C. Safe to call more than
// once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.C)
	})
}

func (s *Subscription) wants(channel string) bool {
	if len(s.channels) == 0 {
		return true
	}
	_, ok := s.channels[channel]
	return ok
}

// Hub fans change events out to subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers for events on the given channels. With no
// channels the subscription receives everything.
func (h *Hub) Subscribe(channels ...string) *Subscription {
	sub := &Subscription{
		C:   make(chan Event, subscriptionBuffer),
		hub: h,
	}
	if len(channels) > 0 {
		sub.channels = make(map[string]struct{}, len(channels))
		for _, c := range channels {
			sub.channels[c] = struct{}{}
		}
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers an event to every interested subscriber. It never
// blocks: a subscriber whose buffer is full misses the event, which is
// acceptable for advisory refresh notifications.
func (h *Hub) Publish(channel string, payload any) {
	ev := Event{Channel: channel, Payload: payload, At: time.Now()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.wants(channel) {
			continue
		}
		select {
		case sub.C <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}
