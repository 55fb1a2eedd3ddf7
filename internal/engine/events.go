package engine

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a regeneration lifecycle event.
type EventType string

const (
	// EventPassStarted fires once when a regeneration pass begins.
	EventPassStarted EventType = "pass-started"

	// EventItemUpdate fires once per processed snippet with a terminal
	// status.
	EventItemUpdate EventType = "item-update"

	// EventPassCompleted fires once when a pass ends, even if the pass
	// aborted on an internal error.
	EventPassCompleted EventType = "pass-completed"
)

// Status is the terminal outcome of a single item.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Event is published on the engine's bus as a pass progresses.
type Event struct {
	Type EventType `json:"type"`

	// Name and Status are set on item updates.
	Name   string `json:"name,omitempty"`
	Status Status `json:"status,omitempty"`

	// Error carries the failure message for item failures.
	Error string `json:"error,omitempty"`

	// Cyclic lists snippets excluded from the pass, set on pass-completed.
	Cyclic []string `json:"cyclic,omitempty"`

	Time time.Time `json:"time"`
}

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind starts losing events; the wait gate re-checks the store
// on pass-completed, so a dropped item update degrades to a slower answer,
// not a wrong one.
const subscriberBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks: a full
// subscriber channel drops the event with a warning.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	logger *slog.Logger
}

// NewBus creates an event bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"subscriber", id,
				"type", ev.Type,
				"name", ev.Name)
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
