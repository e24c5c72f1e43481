package notify

import (
	"testing"

	"github.com/google/uuid"
)

func TestBrokerFansOut(t *testing.T) {
	broker := NewBroker()

	var first, second []Event
	unsubFirst := broker.Subscribe(func(evt Event) { first = append(first, evt) })
	defer unsubFirst()
	unsubSecond := broker.Subscribe(func(evt Event) { second = append(second, evt) })

	id := uuid.New()
	broker.Publish(Event{Action: ActionInsert, LeadID: id})

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected both subscribers notified, got %d and %d", len(first), len(second))
	}
	if first[0].At.IsZero() {
		t.Fatalf("expected Publish to stamp the event time")
	}

	unsubSecond()
	broker.Publish(Event{Action: ActionDelete, LeadID: id})

	if len(first) != 2 {
		t.Fatalf("expected remaining subscriber notified, got %d", len(first))
	}
	if len(second) != 1 {
		t.Fatalf("unsubscribed callback still received events")
	}

	// Unsubscribing twice is harmless.
	unsubSecond()
}

func TestBrokerNilSafe(t *testing.T) {
	var broker *Broker
	broker.Publish(Event{Action: ActionUpdate, LeadID: uuid.New()})
}
