package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/alert-triage/internal/domain"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster(discardLogger())

	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)
	assert.Equal(t, 2, b.Len())

	ev := Event{Type: EventCandidate, Candidate: domain.AlertCandidate{ID: "cand-1"}}
	b.Broadcast(ev)

	assert.Equal(t, ev, <-ch1)
	assert.Equal(t, ev, <-ch2)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(discardLogger())

	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Len())

	// Unsubscribing twice is harmless.
	b.Unsubscribe(id)
}

func TestBroadcaster_SlowSubscriberDropsEvents(t *testing.T) {
	b := NewBroadcaster(discardLogger())

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// Fill the buffer past capacity; extra events are dropped, not blocking.
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Broadcast(Event{Type: EventCandidate})
	}

	require.Len(t, ch, subscriberBuffer)
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	b := NewBroadcaster(discardLogger())
	b.Broadcast(Event{Type: EventDecision})
	assert.Equal(t, 0, b.Len())
}
