package eventbus

import (
	"testing"

	"github.com/kilianp07/railsim/core/model"
)

var _ EventBus = New()

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("subscribe after close should return a closed channel")
	}
	bus.Publish("dropped")
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
	bus.Close()
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewWithBuffer(2)
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	if len(ch) != 2 {
		t.Fatalf("expected 2 buffered events got %d", len(ch))
	}
	if v := <-ch; v != 0 {
		t.Fatalf("expected oldest event first got %v", v)
	}
}

func TestTypedBusSnapshots(t *testing.T) {
	bus := NewTyped[model.TrainSnapshot]()
	defer bus.Close()
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(model.TrainSnapshot{TrainID: 3, Status: "MOVING"})
	for _, ch := range []<-chan model.TrainSnapshot{a, b} {
		if s := <-ch; s.TrainID != 3 || s.Status != "MOVING" {
			t.Fatalf("unexpected snapshot %+v", s)
		}
	}
}
