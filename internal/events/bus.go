package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Bus fans events out to channel subscribers.
// Delivery never blocks the publisher: a subscriber whose buffer is full misses
// the event. A nil *Bus accepts Publish calls and drops them.
type Bus struct {
	now    func() time.Time
	subs   map[int]chan Event
	log    zerolog.Logger
	mu     sync.RWMutex
	nextID int
	closed bool
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		now:  time.Now,
		subs: make(map[int]chan Event),
		log:  log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a subscriber with the given channel buffer.
// The returned function unsubscribes and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish emits an event to every subscriber
func (b *Bus) Publish(module string, data EventData) {
	if b == nil || data == nil {
		return
	}
	event := Event{
		Type:      data.EventType(),
		Timestamp: b.now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Warn().
				Str("event_type", string(event.Type)).
				Int("subscriber", id).
				Msg("Subscriber buffer full, dropping event")
		}
	}

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", module).
		Int("subscribers", len(b.subs)).
		Msg("Event published")
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
