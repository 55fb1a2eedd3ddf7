package engine

import (
	"testing"
	"time"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := NewBus(discardLogger())

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Type: EventPassStarted})

	select {
	case ev := <-ch:
		if ev.Type != EventPassStarted {
			t.Errorf("expected pass-started, got %s", ev.Type)
		}
		if ev.Time.IsZero() {
			t.Error("expected publish to stamp the event time")
		}
	case <-time.After(time.Second):
		t.Fatal("expected the event to be delivered")
	}
}

func TestBusCancelIsIdempotent(t *testing.T) {
	bus := NewBus(discardLogger())

	_, cancel := bus.Subscribe()
	cancel()
	cancel()

	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected no subscribers after cancel, got %d", n)
	}

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish(Event{Type: EventPassCompleted})
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus(discardLogger())

	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overflow the subscriber buffer; publish must drop, not block.
		for i := 0; i < subscriberBuffer*2; i++ {
			bus.Publish(Event{Type: EventItemUpdate, Name: "x", Status: StatusSuccess})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus(discardLogger())

	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish(Event{Type: EventItemUpdate, Name: "gen", Status: StatusFailure, Error: "boom"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Name != "gen" || ev.Status != StatusFailure || ev.Error != "boom" {
				t.Errorf("unexpected event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("expected both subscribers to receive the event")
		}
	}
}
