package bus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bus fans workspace events out to subscribers. Delivery never blocks the
// publisher: a subscriber whose buffer is full misses the event and the miss
// is counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	lastID  uint64
	dropped atomic.Int64
}

type subscriber struct {
	prefix string
	events chan Event
}

func (s *subscriber) wants(kind string) bool {
	return s.prefix == "" || strings.HasPrefix(kind, s.prefix)
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]*subscriber)}
}

// Publish delivers evt to every subscriber whose prefix matches evt.Kind.
// A zero Timestamp is set to now. Publishing on a nil bus is a no-op.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.wants(evt.Kind) {
			continue
		}
		select {
		case s.events <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Emit publishes payload under kind.
func (b *Bus) Emit(kind string, payload any) {
	b.Publish(Event{Kind: kind, Payload: payload})
}

// Subscribe registers interest in kinds starting with prefix ("" for all)
// and returns the event channel with a cancel func. Cancel is idempotent and
// does not close the channel.
func (b *Bus) Subscribe(prefix string, buffer int) (<-chan Event, func()) {
	s := &subscriber{prefix: prefix, events: make(chan Event, buffer)}
	b.mu.Lock()
	b.lastID++
	id := b.lastID
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.events, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
