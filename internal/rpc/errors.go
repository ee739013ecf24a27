// ABOUTME: JSON-RPC error codes, the call-local *Error type, and connection sentinels
// ABOUTME: Call errors leave the connection usable; ErrConnectionClosed means it was torn down

package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidReq     = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

var (
	// ErrConnectionClosed is wrapped by every error a pending call receives
	// when its connection is torn down.
	ErrConnectionClosed = errors.New("rpc: connection closed")

	// ErrClientClosed is returned by calls made after Close.
	ErrClientClosed = errors.New("rpc: client closed")
)

// Error is an error Response from the daemon.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsMethodNotFound reports whether err is a method-not-found Error.
func IsMethodNotFound(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Code == ErrCodeMethodNotFound
}

func connectionClosed(cause error) error {
	if cause == nil || errors.Is(cause, ErrConnectionClosed) {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %w", ErrConnectionClosed, cause)
}
