// Package notify delivers lead change events to registered observers. The
// broker is purely in-process: the import and scoring core never depends on
// a subscription existing.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action describes what happened to a lead.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is one change notification.
type Event struct {
	Action Action    `json:"action"`
	LeadID uuid.UUID `json:"leadId"`
	At     time.Time `json:"at"`
}

// Callback receives published events. Callbacks must not block.
type Callback func(Event)

// Broker fans events out to subscribers.
type Broker struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]Callback
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[int]Callback)}
}

// Subscribe registers a callback and returns an unsubscribe handle.
// Unsubscribing twice is a no-op.
func (b *Broker) Subscribe(cb Callback) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// Publish delivers the event to every current subscriber.
func (b *Broker) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.Lock()
	callbacks := make([]Callback, 0, len(b.subscribers))
	for _, cb := range b.subscribers {
		callbacks = append(callbacks, cb)
	}
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(evt)
	}
}
