package service

import "testing"

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	want := Event{Resource: "contributions", Action: "created", ID: "7"}
	bus.Publish(want)

	for _, ch := range []chan Event{a, b} {
		select {
		case got := <-ch:
			if got != want {
				t.Errorf("received %+v", got)
			}
		default:
			t.Error("subscriber missed the event")
		}
	}
}

func TestEventBusSlowSubscriberSkipped(t *testing.T) {
	bus := NewEventBus()
	slow := bus.Subscribe()
	defer bus.Unsubscribe(slow)

	// Fill the subscriber's buffer; further publishes must not block.
	for i := 0; i < cap(slow)+5; i++ {
		bus.Publish(Event{Resource: "segments", Action: "updated"})
	}
	if len(slow) != cap(slow) {
		t.Errorf("buffered %d events, want full buffer %d", len(slow), cap(slow))
	}
}

func TestEventBusUnsubscribeCloses(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	bus.Publish(Event{Resource: "segments", Action: "deleted"})
}
