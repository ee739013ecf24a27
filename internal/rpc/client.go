// ABOUTME: JSON-RPC 2.0 client: correlates responses to requests over one transport connection
// ABOUTME: Single reader goroutine routes responses to pending calls and notifications to streams

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/mauromedda/maude-go/internal/eventbus"
	"github.com/mauromedda/maude-go/internal/transport"
)

const jsonRPCVersion = "2.0"

// Request is an outgoing JSON-RPC request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// Notification is an unsolicited message from the daemon.
type Notification struct {
	Method string
	Params json.RawMessage
}

// message is any inbound frame.
type message struct {
	ID     *int64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

type outcome struct {
	result json.RawMessage
	err    error
}

// pendingCall is an outstanding request. It leaves the pending table exactly
// once: on its terminal response, on abandonment, or on connection teardown.
type pendingCall struct {
	id     int64
	method string
	done   chan outcome
	sink   *sink
	notify string
}

type connState struct {
	done chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for routing diagnostics.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithUnrouted publishes notifications that match no open stream to bus.
func WithUnrouted(bus *eventbus.Bus[Notification]) Option {
	return func(c *Client) { c.unrouted = bus }
}

// WithStreamBuffer sets the initial capacity of each stream's queue. The
// queue still grows past it.
func WithStreamBuffer(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.streamBuffer = n
		}
	}
}

// Client issues calls over a transport. It is safe for concurrent use.
type Client struct {
	t            transport.Transport
	log          *zap.SugaredLogger
	unrouted     *eventbus.Bus[Notification]
	streamBuffer int

	// connMu serializes Connect and Close.
	connMu sync.Mutex
	// writeMu is held across the current-connection check and the write,
	// and across installing a new connection, so a request registered on a
	// torn-down connection can never be written to its successor.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]*pendingCall
	nextID  int64
	conn    *connState
	closed  bool
}

// New creates a client over t. No connection is made until Connect or the
// first call.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		t:            t,
		log:          zap.NewNop().Sugar(),
		streamBuffer: 16,
		pending:      make(map[int64]*pendingCall),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the transport if needed and starts the reader. Request ids
// keep increasing across reconnects.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.t.Connected() {
		if err := c.t.Connect(ctx); err != nil {
			return err
		}
	}

	st := &connState{done: make(chan struct{})}
	c.mu.Lock()
	c.conn = st
	c.mu.Unlock()

	c.log.Debugw("connected")
	go c.readLoop(st)
	return nil
}

// Connected reports whether a connection is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Pending returns the number of outstanding calls.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close tears down the connection and fails every pending call. Idempotent.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	st := c.conn
	c.mu.Unlock()

	err := c.t.Close()
	if st != nil {
		<-st.done
	}
	c.failAll(ErrClientClosed)
	return err
}

// Call sends method with params and decodes the result into result, which
// may be nil. It blocks until the response arrives, ctx ends, or the
// connection is lost.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	p, err := c.start(ctx, method, params, nil, "")
	if err != nil {
		return err
	}

	select {
	case out := <-p.done:
		if out.err != nil {
			return out.err
		}
		if result == nil || len(out.result) == 0 {
			return nil
		}
		if err := json.Unmarshal(out.result, result); err != nil {
			return fmt.Errorf("rpc: decoding %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		c.abandon(p)
		return ctx.Err()
	}
}

// Stream sends method and returns a Stream yielding the params of every
// notifyMethod notification routed to this call, ending with the terminal
// response. ctx bounds only connecting and sending; pass a context to
// Stream.Next to bound waiting.
func (c *Client) Stream(ctx context.Context, method string, params any, notifyMethod string) (*Stream, error) {
	s := newSink(c.streamBuffer)
	p, err := c.start(ctx, method, params, s, notifyMethod)
	if err != nil {
		return nil, err
	}
	return &Stream{c: c, p: p, stop: make(chan struct{})}, nil
}

// start registers a pending call and writes its request. The entry is in
// the table before the write so a fast response cannot be missed.
func (c *Client) start(ctx context.Context, method string, params any, s *sink, notify string) (*pendingCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if params == nil {
		params = struct{}{}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	st := c.conn
	c.nextID++
	p := &pendingCall{
		id:     c.nextID,
		method: method,
		done:   make(chan outcome, 1),
		sink:   s,
		notify: notify,
	}
	c.pending[p.id] = p
	c.mu.Unlock()

	data, err := json.Marshal(Request{JSONRPC: jsonRPCVersion, ID: p.id, Method: method, Params: params})
	if err != nil {
		c.abandon(p)
		return nil, fmt.Errorf("rpc: marshaling %s: %w", method, err)
	}
	if err := c.write(st, data); err != nil {
		c.abandon(p)
		if errors.Is(err, transport.ErrClosed) || errors.Is(err, transport.ErrNotConnected) {
			return nil, connectionClosed(err)
		}
		return nil, fmt.Errorf("rpc: writing %s: %w", method, err)
	}
	return p, nil
}

// write sends data only while st is still the live connection.
func (c *Client) write(st *connState, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	live := c.conn == st
	c.mu.Unlock()
	if !live {
		return transport.ErrClosed
	}
	return c.t.WriteMessage(data)
}

// abandon removes p if it is still pending. Late frames for it are dropped.
func (c *Client) abandon(p *pendingCall) {
	c.mu.Lock()
	if cur, ok := c.pending[p.id]; ok && cur == p {
		delete(c.pending, p.id)
	}
	c.mu.Unlock()
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	failed := c.takePending()
	c.mu.Unlock()
	fail(failed, err)
}

// takePending empties the pending table. Callers hold c.mu.
func (c *Client) takePending() map[int64]*pendingCall {
	taken := c.pending
	c.pending = make(map[int64]*pendingCall)
	return taken
}

func fail(calls map[int64]*pendingCall, err error) {
	for _, p := range calls {
		p.done <- outcome{err: err}
	}
}

// readLoop is the only caller of ReadMessage for a connection. Any read
// error is fatal to the connection.
func (c *Client) readLoop(st *connState) {
	defer close(st.done)

	for {
		raw, err := c.t.ReadMessage()
		if err != nil {
			c.teardown(st, err)
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) teardown(st *connState, cause error) {
	_ = c.t.Close()

	// Clearing conn and the table together keeps calls made on the next
	// connection out of this teardown.
	c.mu.Lock()
	if c.conn == st {
		c.conn = nil
	}
	failed := c.takePending()
	c.mu.Unlock()

	c.log.Debugw("connection closed", "cause", cause, "failed", len(failed))
	fail(failed, connectionClosed(cause))
}

func (c *Client) dispatch(raw json.RawMessage) {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Debugw("dropping unparseable message", "error", err)
		return
	}

	switch {
	case msg.ID != nil && msg.Method == "":
		c.resolve(*msg.ID, msg)
	case msg.ID == nil && msg.Method != "":
		c.route(Notification{Method: msg.Method, Params: msg.Params})
	default:
		c.log.Debugw("dropping message", "method", msg.Method)
	}
}

func (c *Client) resolve(id int64, msg message) {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debugw("dropping response for unknown id", "id", id)
		return
	}
	if msg.Error != nil {
		p.done <- outcome{err: msg.Error}
		return
	}
	p.done <- outcome{result: msg.Result}
}

// route hands n to a stream: the one whose request id equals
// params.request_id, else the single open stream subscribed to n.Method.
func (c *Client) route(n Notification) {
	c.mu.Lock()
	target := c.streamFor(n)
	c.mu.Unlock()

	if target == nil {
		c.log.Debugw("unrouted notification", "method", n.Method)
		c.unrouted.Publish(n)
		return
	}
	target.sink.push(n.Params)
}

func (c *Client) streamFor(n Notification) *pendingCall {
	if rid := gjson.GetBytes(n.Params, "request_id"); rid.Exists() {
		p, ok := c.pending[rid.Int()]
		if !ok || p.sink == nil || (p.notify != "" && p.notify != n.Method) {
			return nil
		}
		return p
	}

	var match *pendingCall
	for _, p := range c.pending {
		if p.sink == nil || p.notify != n.Method {
			continue
		}
		if match != nil {
			return nil
		}
		match = p
	}
	return match
}
