// ABOUTME: Lazy, single-consumption sequence of streaming notification payloads
// ABOUTME: Unbounded per-stream queue so a slow consumer never stalls the reader

package rpc

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"sync"
)

type sink struct {
	mu     sync.Mutex
	items  []json.RawMessage
	signal chan struct{}
}

func newSink(capacity int) *sink {
	return &sink{
		items:  make([]json.RawMessage, 0, capacity),
		signal: make(chan struct{}, 1),
	}
}

func (s *sink) push(v json.RawMessage) {
	s.mu.Lock()
	s.items = append(s.items, v)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *sink) pop() (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, false
	}
	v := s.items[0]
	s.items[0] = nil
	s.items = s.items[1:]
	return v, true
}

// Stream is the consumer side of a streaming call. Payloads are yielded in
// the order the daemon sent them. Once finished it cannot be restarted.
type Stream struct {
	c         *Client
	p         *pendingCall
	stop      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	finished bool
	result   json.RawMessage
	err      error
}

// ID returns the request id of the call.
func (s *Stream) ID() int64 { return s.p.id }

// Next returns the next notification payload. It returns io.EOF after the
// terminal response and keeps returning it. A failed call returns its error
// instead. If ctx ends while waiting, the call is abandoned.
func (s *Stream) Next(ctx context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if v, ok := s.p.sink.pop(); ok {
			return v, nil
		}
		if s.finished {
			if s.err != nil {
				return nil, s.err
			}
			return nil, io.EOF
		}

		select {
		case <-s.p.sink.signal:
		case out := <-s.p.done:
			// Notifications sent before the response are already queued.
			s.finished = true
			s.result = out.result
			s.err = out.err
		case <-s.stop:
			s.finished = true
		case <-ctx.Done():
			s.c.abandon(s.p)
			s.finished = true
			s.err = ctx.Err()
			return nil, s.err
		}
	}
}

// All returns an iterator over the remaining payloads. It stops after the
// terminal response; a failure is yielded once as the final element.
func (s *Stream) All(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for {
			v, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Result returns the terminal result once Next has returned io.EOF.
func (s *Stream) Result() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Close abandons the call if it has not finished. Later notifications for
// it are treated as unrouted.
func (s *Stream) Close() {
	s.c.abandon(s.p)
	s.closeOnce.Do(func() { close(s.stop) })
}
