package pipeline

import (
	"log/slog"
	"sync"

	"github.com/couchcryptid/alert-triage/internal/domain"
)

// EventType distinguishes candidate updates from verification decisions.
type EventType string

const (
	EventCandidate EventType = "CANDIDATE"
	EventDecision  EventType = "DECISION"
)

// Event is one push notification to live subscribers.
type Event struct {
	Type      EventType             `json:"type"`
	Candidate domain.AlertCandidate `json:"payload"`
}

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind misses events rather than blocking the pipeline.
const subscriberBuffer = 16

// Broadcaster fans events out to live subscribers. New subscribers receive
// only future events; there is no history replay. Safe for concurrent
// subscribe, unsubscribe, and broadcast.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *slog.Logger
}

// NewBroadcaster creates an empty subscriber registry.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a listener and returns its id and event channel.
func (b *Broadcaster) Subscribe() (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel. Removal holds the
// registry lock, so it never races a broadcast iteration.
func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Broadcast delivers an event to every current subscriber. Delivery is
// non-blocking: a subscriber with a full buffer skips this event.
func (b *Broadcaster) Broadcast(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("subscriber buffer full, dropping event",
				"subscriber", id, "event_type", ev.Type)
		}
	}
}

// Len reports the current subscriber count.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
