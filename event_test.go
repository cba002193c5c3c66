package threadpool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestEventBusSubscribe(t *testing.T) {
	bus := NewEventBus()
	var called bool

	bus.Subscribe(100, func(p EventPayload) error {
		called = true
		return nil
	})

	bus.Publish(100, &ServerEventErrorPayload{})

	if !called {
		t.Error("Handler was not called")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count int64

	for i := 0; i < 5; i++ {
		bus.Subscribe(200, func(p EventPayload) error {
			atomic.AddInt64(&count, 1)
			return nil
		})
	}

	bus.Publish(200, &ServerEventErrorPayload{})

	if finalCount := atomic.LoadInt64(&count); finalCount != 5 {
		t.Errorf("Expected 5 handlers called, got %d", finalCount)
	}
}

func TestEventBusPublishReturnsFirstError(t *testing.T) {
	bus := NewEventBus()
	first := errors.New("first")
	var calls int

	bus.Subscribe(300, func(p EventPayload) error { calls++; return first })
	bus.Subscribe(300, func(p EventPayload) error { calls++; return errors.New("second") })

	if err := bus.Publish(300, &ServerEventStoppedPayload{}); !errors.Is(err, first) {
		t.Errorf("Expected first error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected every handler to run, got %d", calls)
	}
}

func TestEventBusUnregisteredEvent(t *testing.T) {
	bus := NewEventBus()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("EventBus panicked: %v", r)
		}
	}()

	if err := bus.Publish(999, &ServerEventErrorPayload{}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestEventBusPublishAsync(t *testing.T) {
	bus := NewEventBus()
	var count int64
	var wg sync.WaitGroup

	wg.Add(1)
	bus.Subscribe(500, func(p EventPayload) error {
		defer wg.Done()
		atomic.AddInt64(&count, 1)
		return nil
	})

	bus.PublishAsync(500, &ServerEventErrorPayload{})

	wg.Wait()
	if finalCount := atomic.LoadInt64(&count); finalCount != 1 {
		t.Errorf("Expected handler to be called once, got %d times", finalCount)
	}
}

func TestEventBusConcurrentPublish(t *testing.T) {
	bus := NewEventBus()
	var count int64
	var wg sync.WaitGroup

	bus.Subscribe(600, func(p EventPayload) error {
		atomic.AddInt64(&count, 1)
		return nil
	})

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(600, &ServerEventErrorPayload{})
		}()
	}

	wg.Wait()

	if finalCount := atomic.LoadInt64(&count); finalCount != 100 {
		t.Errorf("Expected handler to be called 100 times, got %d", finalCount)
	}
}
