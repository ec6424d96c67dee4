// Package eventbus is the global telemetry bus described in spec §9:
// tagged event variants fan out to subscribers over bounded queues.
// A subscriber that falls behind has events dropped rather than
// blocking the publisher — the core never depends on any subscriber
// existing.
package eventbus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind tags an Event's variant.
type Kind string

const (
	KindTurnStarted       Kind = "turn_started"
	KindTurnFinished       Kind = "turn_finished"
	KindToolCallStarted    Kind = "tool_call_started"
	KindToolCallFinished   Kind = "tool_call_finished"
	KindStatusUpdate       Kind = "status_update"
	KindBoundaryCrossing   Kind = "boundary_crossing"
)

// Event is one telemetry record.
type Event struct {
	ID        string
	Kind      Kind
	SessionID string
	Timestamp time.Time
	Attrs     map[string]any
}

// defaultQueueSize is how many events a slow subscriber may buffer
// before new events are dropped for it.
const defaultQueueSize = 256

// Bus is a broadcast fan-out over typed Events.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is bounded; if the subscriber
// can't keep up, events are dropped for it (never for other
// subscribers, and never blocking Publish).
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, defaultQueueSize)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Publish fans an event out to every current subscriber. Events
// missing an ID or Timestamp get one assigned.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			slog.Debug("eventbus: dropping event for slow subscriber", "subscriber", id, "kind", e.Kind)
		}
	}
}
