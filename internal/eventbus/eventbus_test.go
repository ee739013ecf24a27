// ABOUTME: Tests for the typed event bus
// ABOUTME: Covers ordering, unsubscribe, channel subscriptions, nil bus, and concurrent access

package eventbus

import (
	"sync"
	"testing"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var order []string
	bus.Subscribe(func(int) { order = append(order, "a") })
	bus.Subscribe(func(int) { order = append(order, "b") })
	bus.Subscribe(func(int) { order = append(order, "c") })

	bus.Publish(1)

	if got := len(order); got != 3 {
		t.Fatalf("handlers called = %d; want 3", got)
	}
	for i, want := range []string{"a", "b", "c"} {
		if order[i] != want {
			t.Errorf("order[%d] = %q; want %q", i, order[i], want)
		}
	}
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	bus := New[string]()
	calls := 0
	unsub := bus.Subscribe(func(string) { calls++ })
	keep := bus.Subscribe(func(string) {})
	defer keep()

	unsub()
	unsub()
	bus.Publish("x")

	if calls != 0 {
		t.Errorf("calls = %d; want 0 after unsubscribe", calls)
	}
	if bus.Count() != 1 {
		t.Errorf("Count = %d; want 1", bus.Count())
	}
}

func TestBus_ChanDropsWhenFull(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	ch, unsub := bus.Chan(2)
	defer unsub()

	for i := range 5 {
		bus.Publish(i)
	}

	if len(ch) != 2 {
		t.Fatalf("buffered = %d; want 2", len(ch))
	}
	if v := <-ch; v != 0 {
		t.Errorf("first = %d; want 0", v)
	}
	if v := <-ch; v != 1 {
		t.Errorf("second = %d; want 1", v)
	}
}

func TestBus_NilBusIsInert(t *testing.T) {
	t.Parallel()

	var bus *Bus[string]
	bus.Publish("ignored")
	unsub := bus.Subscribe(func(string) { t.Error("handler on nil bus must not run") })
	unsub()
	if bus.Count() != 0 {
		t.Errorf("Count = %d; want 0", bus.Count())
	}
}

func TestBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(func(n int) {
				mu.Lock()
				total += n
				mu.Unlock()
			})
			defer unsub()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(1)
		}()
	}
	wg.Wait()

	mu.Lock()
	if total > 10 {
		t.Errorf("total = %d; want at most 10", total)
	}
	mu.Unlock()
	if bus.Count() != 0 {
		t.Errorf("Count = %d; want 0 after all unsubscribed", bus.Count())
	}
}
