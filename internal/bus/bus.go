// Package bus broadcasts bot lifecycle events to API clients.
package bus

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types for the bot event stream.
const (
	EventConnection = "connection" // Connection lifecycle transition
	EventPairing    = "pairing"    // Pairing attempt progress
	EventMessage    = "message"    // Inbound message handled
	EventCommand    = "command"    // Command dispatched
	EventModeration = "moderation" // Warning issued / user removed
	EventError      = "error"      // Error notification
)

// Event is a single event broadcast to API stream clients.
type Event struct {
	Type         string `json:"type"`
	State        string `json:"state,omitempty"`        // For connection: target state name
	Conversation string `json:"conversation,omitempty"` // For message/command/moderation
	Sender       string `json:"sender,omitempty"`       // For message/command/moderation
	Command      string `json:"command,omitempty"`      // For command: name without prefix
	Message      string `json:"message,omitempty"`      // For pairing/moderation/error detail
	TS           string `json:"ts"`
}

// MarshalEvent renders the event as a JSON line, stamping TS if unset.
func (e Event) MarshalEvent() []byte {
	if e.TS == "" {
		e.TS = time.Now().Format(time.RFC3339)
	}
	b, _ := json.Marshal(e)
	return b
}

// subscriber is one connected stream client.
type subscriber struct {
	ch   chan Event
	done chan struct{}
}

// Bus fans events out to every attached stream client. Safe for
// concurrent use. A client that stops draining its channel loses
// events rather than blocking publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}

	// recent is a bounded replay window for clients that attach late.
	recent    []Event
	recentMu  sync.RWMutex
	maxRecent int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[*subscriber]struct{}),
		maxRecent:   200,
	}
}

// Publish stamps the event, appends it to the replay window, and fans
// it out. Never blocks on a slow client.
func (b *Bus) Publish(e Event) {
	if e.TS == "" {
		e.TS = time.Now().Format(time.RFC3339)
	}

	b.recentMu.Lock()
	b.recent = append(b.recent, e)
	if len(b.recent) > b.maxRecent {
		b.recent = b.recent[len(b.recent)-b.maxRecent:]
	}
	b.recentMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub.ch <- e:
		default:
			// full channel, skip; the replay window covers the gap
		}
	}
}

// Subscribe attaches a new stream client and returns its event channel
// along with a done channel that identifies it to Unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, chan struct{}) {
	sub := &subscriber{
		ch:   make(chan Event, 64),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	return sub.ch, sub.done
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(done chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers {
		if sub.done == done {
			close(sub.ch)
			delete(b.subscribers, sub)
			return
		}
	}
}

// Recent returns up to n of the most recent events, oldest first.
func (b *Bus) Recent(n int) []Event {
	b.recentMu.RLock()
	defer b.recentMu.RUnlock()

	if n <= 0 || n > len(b.recent) {
		n = len(b.recent)
	}
	result := make([]Event, n)
	copy(result, b.recent[len(b.recent)-n:])
	return result
}

// SubscriberCount reports how many stream clients are attached.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
