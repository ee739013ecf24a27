// ABOUTME: WebSocket transport: one JSON-RPC body per text message via gorilla/websocket
// ABOUTME: WebSocket message boundaries replace Content-Length headers on this channel

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

	"github.com/gorilla/websocket"

	"github.com/mauromedda/maude-go/internal/frame"
)

// WebSocketTransport carries messages over a WebSocket connection.
type WebSocketTransport struct {
	url    string
	dialer websocket.Dialer
	limits frame.Limits

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex
}

// NewWebSocket returns a transport for the ws:// or wss:// endpoint url.
func NewWebSocket(url string, dialTimeout time.Duration) *WebSocketTransport {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &WebSocketTransport{
		url: url,
		dialer: websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: dialTimeout,
		},
		limits: frame.DefaultLimits(),
	}
}

// Connect performs the WebSocket handshake.
func (t *WebSocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return &ConnectError{Addr: t.url, Err: err}
	}
	conn.SetReadLimit(int64(t.limits.MaxBodyBytes))
	t.conn = conn
	return nil
}

// Close sends a close frame (best effort) and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	t.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	t.writeMu.Unlock()

	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing %s: %w", t.url, err)
	}
	return nil
}

// Connected reports whether the handshake has completed and Close has not
// been called.
func (t *WebSocketTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// ReadMessage returns the next text or binary message as a JSON body.
func (t *WebSocketTransport) ReadMessage() (json.RawMessage, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil, ErrClosed
			}
			return nil, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		if !json.Valid(data) {
			return nil, &frame.FramingError{Reason: "websocket message is not valid JSON"}
		}
		return json.RawMessage(data), nil
	}
}

// WriteMessage sends msg as a single text message.
func (t *WebSocketTransport) WriteMessage(msg json.RawMessage) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("writing websocket message: %w", err)
	}
	return nil
}
