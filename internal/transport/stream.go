// ABOUTME: Byte-stream transports (Unix domain socket, TCP) using Content-Length framing
// ABOUTME: Serializes writes with a mutex; maps peer hangup to ErrClosed

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/mauromedda/maude-go/internal/frame"
)

const defaultDialTimeout = 2 * time.Second

// StreamTransport carries framed messages over a net.Conn. The zero value is
// not usable; construct with NewUnix or NewTCP.
type StreamTransport struct {
	network string
	addr    string
	timeout time.Duration
	limits  frame.Limits

	mu     sync.Mutex
	conn   net.Conn
	reader *frame.Reader

	writeMu sync.Mutex
}

// NewUnix returns a transport for the Unix domain socket at path.
func NewUnix(path string, dialTimeout time.Duration) *StreamTransport {
	return newStream("unix", path, dialTimeout)
}

// NewTCP returns a transport for the TCP endpoint addr (host:port).
func NewTCP(addr string, dialTimeout time.Duration) *StreamTransport {
	return newStream("tcp", addr, dialTimeout)
}

func newStream(network, addr string, timeout time.Duration) *StreamTransport {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &StreamTransport{
		network: network,
		addr:    addr,
		timeout: timeout,
		limits:  frame.DefaultLimits(),
	}
}

// Addr returns the dial address.
func (t *StreamTransport) Addr() string { return t.addr }

// Connect dials the endpoint. Connecting an already connected transport is
// a no-op.
func (t *StreamTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}

	d := net.Dialer{Timeout: t.timeout}
	conn, err := d.DialContext(ctx, t.network, t.addr)
	if err != nil {
		return &ConnectError{Addr: t.addr, Err: err}
	}
	t.conn = conn
	t.reader = frame.NewReader(conn, t.limits)
	return nil
}

// Close closes the connection if one is open.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.reader = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing %s: %w", t.addr, err)
	}
	return nil
}

// Connected reports whether a connection is open.
func (t *StreamTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// ReadMessage reads exactly one frame. Only one goroutine may read at a time.
func (t *StreamTransport) ReadMessage() (json.RawMessage, error) {
	t.mu.Lock()
	r := t.reader
	t.mu.Unlock()
	if r == nil {
		return nil, ErrNotConnected
	}

	msg, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return msg, nil
}

// WriteMessage writes msg as one frame. Concurrent writers are serialized.
func (t *StreamTransport) WriteMessage(msg json.RawMessage) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := frame.Write(conn, msg); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}
