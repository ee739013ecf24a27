// ABOUTME: In-memory Transport and scriptable daemon Peer for deterministic RPC tests
// ABOUTME: Peer reads client requests and injects responses, notifications, errors, hangups

package transporttest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mauromedda/maude-go/internal/transport"
)

// DefaultTimeout bounds every blocking Peer helper.
const DefaultTimeout = 5 * time.Second

// Message is a generic JSON-RPC 2.0 message as seen on the wire.
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is a JSON-RPC error body.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type item struct {
	msg json.RawMessage
	err error
}

type conn struct {
	toClient chan item
	toPeer   chan json.RawMessage
	done     chan struct{}
	once     sync.Once
}

func newConn() *conn {
	return &conn{
		toClient: make(chan item, 256),
		toPeer:   make(chan json.RawMessage, 256),
		done:     make(chan struct{}),
	}
}

func (c *conn) close() { c.once.Do(func() { close(c.done) }) }

// Transport is the client half of an in-memory pipe.
type Transport struct {
	mu         sync.Mutex
	cur        *conn
	connectErr error
	connects   int
	closes     int
	connReady  chan struct{}
}

// Peer is the daemon half of an in-memory pipe.
type Peer struct {
	t *Transport
}

// Pipe returns a connected-on-demand Transport and its Peer.
func Pipe() (*Transport, *Peer) {
	t := &Transport{connReady: make(chan struct{})}
	return t, &Peer{t: t}
}

var _ transport.Transport = (*Transport)(nil)

// Connect opens a fresh in-memory connection unless FailConnect is armed.
func (t *Transport) Connect(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return &transport.ConnectError{Addr: "pipe", Err: t.connectErr}
	}
	if t.cur != nil {
		return nil
	}
	t.cur = newConn()
	t.connects++
	close(t.connReady)
	t.connReady = make(chan struct{})
	return nil
}

// Close closes the current connection. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	c := t.cur
	t.cur = nil
	if c != nil {
		t.closes++
	}
	t.mu.Unlock()
	if c != nil {
		c.close()
	}
	return nil
}

// Connected reports whether a connection is open.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur != nil
}

// ReadMessage blocks until the peer sends a message, hangs up, or the
// transport is closed.
func (t *Transport) ReadMessage() (json.RawMessage, error) {
	t.mu.Lock()
	c := t.cur
	t.mu.Unlock()
	if c == nil {
		return nil, transport.ErrNotConnected
	}

	select {
	case it := <-c.toClient:
		return it.msg, it.err
	case <-c.done:
		return nil, transport.ErrClosed
	}
}

// WriteMessage hands msg to the peer.
func (t *Transport) WriteMessage(msg json.RawMessage) error {
	t.mu.Lock()
	c := t.cur
	t.mu.Unlock()
	if c == nil {
		return transport.ErrNotConnected
	}

	cp := append(json.RawMessage(nil), msg...)
	select {
	case <-c.done:
		return transport.ErrClosed
	case c.toPeer <- cp:
		return nil
	}
}

// Connects returns how many connections have been opened.
func (t *Transport) Connects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}

// Closes returns how many open connections have been closed.
func (t *Transport) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

func (p *Peer) current(tb testing.TB) *conn {
	tb.Helper()
	deadline := time.After(DefaultTimeout)
	for {
		p.t.mu.Lock()
		c := p.t.cur
		ready := p.t.connReady
		p.t.mu.Unlock()
		if c != nil {
			return c
		}
		select {
		case <-ready:
		case <-deadline:
			tb.Fatalf("transporttest: client never connected")
			return nil
		}
	}
}

// FailConnect makes subsequent Connect calls fail with err. A nil err
// re-enables connecting.
func (p *Peer) FailConnect(err error) {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	p.t.connectErr = err
}

// Next returns the next message the client wrote.
func (p *Peer) Next(tb testing.TB) Message {
	tb.Helper()
	c := p.current(tb)
	select {
	case raw := <-c.toPeer:
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			tb.Fatalf("transporttest: client wrote invalid JSON %q: %v", raw, err)
		}
		return m
	case <-time.After(DefaultTimeout):
		tb.Fatalf("transporttest: timed out waiting for a client message")
		return Message{}
	}
}

// SendRaw delivers a raw message body to the client.
func (p *Peer) SendRaw(tb testing.TB, raw string) {
	tb.Helper()
	p.deliver(tb, item{msg: json.RawMessage(raw)})
}

// Send marshals v and delivers it to the client.
func (p *Peer) Send(tb testing.TB, v any) {
	tb.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("transporttest: marshal: %v", err)
	}
	p.deliver(tb, item{msg: data})
}

// Respond sends a success Response for id.
func (p *Peer) Respond(tb testing.TB, id int64, result any) {
	tb.Helper()
	data, err := json.Marshal(result)
	if err != nil {
		tb.Fatalf("transporttest: marshal result: %v", err)
	}
	p.Send(tb, Message{JSONRPC: "2.0", ID: &id, Result: data})
}

// RespondError sends an error Response for id.
func (p *Peer) RespondError(tb testing.TB, id int64, code int, message string) {
	tb.Helper()
	p.Send(tb, Message{JSONRPC: "2.0", ID: &id, Error: &ErrorObject{Code: code, Message: message}})
}

// Notify sends a Notification.
func (p *Peer) Notify(tb testing.TB, method string, params any) {
	tb.Helper()
	data, err := json.Marshal(params)
	if err != nil {
		tb.Fatalf("transporttest: marshal params: %v", err)
	}
	p.Send(tb, Message{JSONRPC: "2.0", Method: method, Params: data})
}

// Fail makes the client's next read return err after any already queued
// messages, simulating a framing failure.
func (p *Peer) Fail(tb testing.TB, err error) {
	tb.Helper()
	p.deliver(tb, item{err: err})
}

// Hangup simulates the daemon closing the connection after any already
// queued messages.
func (p *Peer) Hangup(tb testing.TB) {
	tb.Helper()
	p.deliver(tb, item{err: transport.ErrClosed})
}

func (p *Peer) deliver(tb testing.TB, it item) {
	tb.Helper()
	c := p.current(tb)
	select {
	case c.toClient <- it:
	case <-c.done:
	case <-time.After(DefaultTimeout):
		tb.Fatalf("transporttest: client is not reading")
	}
}
