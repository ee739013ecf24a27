// ABOUTME: Transport interface for moving whole JSON-RPC frames over a connection
// ABOUTME: Defines ConnectError, ErrClosed, and the constructor that picks an implementation

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Transport owns a single bidirectional connection and moves whole messages
// across it. Implementations must make Close idempotent and must never return
// a partial message from ReadMessage.
type Transport interface {
	// Connect establishes the connection. Failures are *ConnectError.
	Connect(ctx context.Context) error
	// Close tears the connection down. Safe to call repeatedly and from
	// cleanup paths after an error.
	Close() error
	// ReadMessage returns the next message body. It returns ErrClosed when
	// the peer hangs up or the transport was closed.
	ReadMessage() (json.RawMessage, error)
	// WriteMessage sends one message body as a single frame.
	WriteMessage(msg json.RawMessage) error
	// Connected reports liveness without side effects.
	Connected() bool
}

var (
	// ErrConnection is matched by every *ConnectError via errors.Is.
	ErrConnection = errors.New("transport: connection failed")
	// ErrClosed reports that the peer disconnected or the transport was closed.
	ErrClosed = errors.New("transport: closed")
	// ErrNotConnected is returned by reads and writes before Connect.
	ErrNotConnected = errors.New("transport: not connected")
)

// ConnectError reports a failed connection attempt (missing socket path,
// permission denied, refused, timeout).
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConnection) true for any ConnectError.
func (e *ConnectError) Is(target error) bool { return target == ErrConnection }

// Options selects and configures a transport implementation. The first
// non-empty endpoint wins: WebSocketURL, then TCPAddr, then SocketPath.
type Options struct {
	SocketPath   string
	TCPAddr      string
	WebSocketURL string
	DialTimeout  time.Duration
}

// New builds the transport described by opts without connecting it.
func New(opts Options) (Transport, error) {
	switch {
	case opts.WebSocketURL != "":
		return NewWebSocket(opts.WebSocketURL, opts.DialTimeout), nil
	case opts.TCPAddr != "":
		return NewTCP(opts.TCPAddr, opts.DialTimeout), nil
	case opts.SocketPath != "":
		return NewUnix(opts.SocketPath, opts.DialTimeout), nil
	default:
		return nil, errors.New("transport: no endpoint configured")
	}
}

// Describe returns a short human-readable endpoint label for opts.
func Describe(opts Options) string {
	switch {
	case opts.WebSocketURL != "":
		return opts.WebSocketURL
	case opts.TCPAddr != "":
		return "tcp://" + opts.TCPAddr
	default:
		return "unix://" + opts.SocketPath
	}
}
