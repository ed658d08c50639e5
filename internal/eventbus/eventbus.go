// Package eventbus implements the bounded, multi-producer multi-consumer
// broadcast bus every significant state transition publishes on. It is
// advisory, not the source of truth: slow subscribers lag and drop events
// rather than block a publisher.
package eventbus

import (
	"sync"

	"github.com/oif-labs/intentsolver/internal/types"
)

// DefaultCapacity is the bound on each subscriber's channel, per the
// concurrency model's backpressure rule.
const DefaultCapacity = 1024

// Bus is a bounded broadcast channel carrying lifecycle events.
type Bus struct {
	mu          sync.RWMutex
	capacity    int
	subscribers map[int]chan types.Event
	nextID      int
}

// New creates a Bus with the given per-subscriber channel capacity. A
// capacity of 0 uses DefaultCapacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity:    capacity,
		subscribers: make(map[int]chan types.Event),
	}
}

// Subscription is a receive-only handle a caller uses to read events and,
// when done, to Unsubscribe.
type Subscription struct {
	id string
	ch <-chan types.Event
	bus *Bus
	key int
}

// Events returns the channel to range over.
func (s *Subscription) Events() <-chan types.Event { return s.ch }

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if ch, ok := s.bus.subscribers[s.key]; ok {
		delete(s.bus.subscribers, s.key)
		close(ch)
	}
}

// Subscribe registers a new receiver. The returned Subscription must be
// unsubscribed by the caller when no longer needed.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan types.Event, b.capacity)
	b.subscribers[id] = ch
	return &Subscription{ch: ch, bus: b, key: id}
}

// Publish fans the event out to every current subscriber. A subscriber
// whose channel is full is skipped (lossy, best-effort) rather than
// blocking the publisher or other subscribers.
func (b *Bus) Publish(event types.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop. The state manager remains the source
			// of truth; this bus is advisory only.
		}
	}
}

// SubscriberCount reports how many receivers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
