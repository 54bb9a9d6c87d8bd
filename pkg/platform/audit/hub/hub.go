// Package hub fans audit events out to live subscribers (the Logs page
// websocket) and keeps a ring of recent events for late joiners.
package hub

import (
	"context"
	"sync"

	audit "juntas/pkg/platform/audit"
)

const defaultSubscriberBuffer = 64

// Hub implements audit.Sink. Publishing never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	recent  *RingBuffer
	metrics *Metrics
}

// Subscription is one live listener.
type Subscription struct {
	ch      chan audit.Event
	hub     *Hub
	once    sync.Once
	mu      sync.Mutex
	dropped int64
}

// Events delivers published events until Close is called.
func (s *Subscription) Events() <-chan audit.Event { return s.ch }

// Dropped reports how many events this subscriber missed.
func (s *Subscription) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
		if s.hub.metrics != nil {
			s.hub.metrics.Subscribers.Dec()
		}
	})
}

type Option func(*Hub)

func WithMetrics(m *Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// New creates a hub that remembers the last recentCapacity events.
func New(recentCapacity int, opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[*Subscription]struct{}),
		recent: NewRingBuffer(recentCapacity),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a listener with a bounded buffer.
func (h *Hub) Subscribe(buffer int) *Subscription {
	s, _ := h.SubscribeWithBacklog(buffer, 0)
	return s
}

// SubscribeWithBacklog registers a listener and returns up to n recent
// events, newest first. Every event is either in the backlog or delivered
// on the subscription, never both.
func (h *Hub) SubscribeWithBacklog(buffer, n int) (*Subscription, []audit.Event) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	s := &Subscription{ch: make(chan audit.Event, buffer), hub: h}
	var backlog []audit.Event
	h.mu.Lock()
	if n > 0 {
		backlog = h.recent.Last(n)
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.Subscribers.Inc()
	}
	return s, backlog
}

// Publish records the event and offers it to every subscriber.
func (h *Hub) Publish(_ context.Context, event audit.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.recent.Enqueue(event)
	for s := range h.subs {
		select {
		case s.ch <- event:
		default:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
			if h.metrics != nil {
				h.metrics.Dropped.Inc()
			}
		}
	}
	return nil
}

// Recent returns up to n of the newest events, newest first.
func (h *Hub) Recent(n int) []audit.Event {
	return h.recent.Last(n)
}

// SubscriberCount is the number of attached listeners.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
