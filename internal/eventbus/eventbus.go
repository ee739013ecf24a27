// ABOUTME: Typed event bus for status snapshots and unrouted daemon notifications
// ABOUTME: Ordered synchronous handlers plus non-blocking channel subscriptions

package eventbus

import "sync"

// Handler is a callback function for events.
type Handler[T any] func(T)

type subscriber[T any] struct {
	id int
	fn Handler[T]
}

// Bus delivers events to handlers in subscription order. A nil *Bus is
// valid and drops every event, so producers can publish unconditionally.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   []subscriber[T]
	nextID int
}

// New creates a new event bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers a handler and returns an unsubscribe function.
// Handlers run synchronously on the publisher's goroutine and must not block.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	if b == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber[T]{id: id, fn: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Chan subscribes a buffered channel. Events published while the channel is
// full are dropped for that subscriber only. The returned function
// unsubscribes; the channel is never closed so late readers do not panic.
func (b *Bus[T]) Chan(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)
	unsub := b.Subscribe(func(ev T) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch, unsub
}

// Publish sends an event to all registered handlers in subscription order.
func (b *Bus[T]) Publish(event T) {
	if b == nil {
		return
	}
	b.mu.RLock()
	snapshot := make([]Handler[T], len(b.subs))
	for i, s := range b.subs {
		snapshot[i] = s.fn
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

// Count returns the number of registered handlers.
func (b *Bus[T]) Count() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
