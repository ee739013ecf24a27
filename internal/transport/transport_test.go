// ABOUTME: Tests for Unix/TCP/WebSocket transports, socket path derivation, and WaitConnect
// ABOUTME: Uses nettest local listeners and an httptest WebSocket echo peer

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"

	"github.com/mauromedda/maude-go/internal/frame"
)

// serveOne accepts a single connection and hands it to fn.
func serveOne(t *testing.T, ln net.Listener, fn func(net.Conn)) {
	t.Helper()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		fn(c)
	}()
}

func TestUnixTransport_RoundTrip(t *testing.T) {
	ln, err := nettest.NewLocalListener("unix")
	require.NoError(t, err)
	defer ln.Close()

	// Echo one frame back with a result wrapper.
	serveOne(t, ln, func(c net.Conn) {
		r := frame.NewReader(c, frame.Limits{})
		body, err := r.Read()
		if err != nil {
			return
		}
		_ = frame.Write(c, body)
	})

	tr := NewUnix(ln.Addr().String(), time.Second)
	require.False(t, tr.Connected())
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()
	assert.True(t, tr.Connected())

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"governor.hello","params":{}}`)
	require.NoError(t, tr.WriteMessage(msg))

	got, err := tr.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, string(msg), string(got))
}

func TestTCPTransport_PeerHangupIsErrClosed(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	defer ln.Close()

	serveOne(t, ln, func(c net.Conn) {})

	tr := NewTCP(ln.Addr().String(), time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	_, err = tr.ReadMessage()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStreamTransport_TruncatedFrameIsFramingError(t *testing.T) {
	ln, err := nettest.NewLocalListener("unix")
	require.NoError(t, err)
	defer ln.Close()

	serveOne(t, ln, func(c net.Conn) {
		_, _ = c.Write([]byte("Content-Length: 50\r\n\r\n{\"id\":"))
	})

	tr := NewUnix(ln.Addr().String(), time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	_, err = tr.ReadMessage()
	assert.ErrorIs(t, err, frame.ErrFraming)
}

func TestStreamTransport_ConnectMissingSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sock")
	tr := NewUnix(path, 200*time.Millisecond)

	err := tr.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)

	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, path, ce.Addr)
	assert.False(t, tr.Connected())
}

func TestStreamTransport_ReadWriteBeforeConnect(t *testing.T) {
	tr := NewUnix("/tmp/fake.sock", time.Second)
	_, err := tr.ReadMessage()
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, tr.WriteMessage(json.RawMessage(`{}`)), ErrNotConnected)
}

func TestStreamTransport_CloseIsIdempotent(t *testing.T) {
	ln, err := nettest.NewLocalListener("unix")
	require.NoError(t, err)
	defer ln.Close()
	serveOne(t, ln, func(c net.Conn) { time.Sleep(100 * time.Millisecond) })

	tr := NewUnix(ln.Addr().String(), time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())
	assert.False(t, tr.Connected())
}

func TestStreamTransport_CloseUnblocksReader(t *testing.T) {
	ln, err := nettest.NewLocalListener("unix")
	require.NoError(t, err)
	defer ln.Close()
	hold := make(chan struct{})
	defer close(hold)
	serveOne(t, ln, func(c net.Conn) { <-hold })

	tr := NewUnix(ln.Addr().String(), time.Second)
	require.NoError(t, tr.Connect(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.ReadMessage()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadMessage did not return after Close")
	}
}

func TestSocketPath_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := SocketPath("/run/user/1000", dir)
	b := SocketPath("/run/user/1000", dir+string(os.PathSeparator)+".")
	assert.Equal(t, a, b)

	base := filepath.Base(a)
	assert.True(t, strings.HasPrefix(base, "governor-"), base)
	assert.True(t, strings.HasSuffix(base, ".sock"), base)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(base, "governor-"), ".sock"), 12)
	assert.Equal(t, "/run/user/1000", filepath.Dir(a))

	other := SocketPath("/run/user/1000", t.TempDir())
	assert.NotEqual(t, a, other)
}

func TestRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/42")
	assert.Equal(t, "/run/user/42", RuntimeDir())
	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Equal(t, "/tmp", RuntimeDir())
}

func TestWaitConnect_ExpiresWithConnectError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.sock")
	tr := NewUnix(path, 50*time.Millisecond)

	start := time.Now()
	err := WaitConnect(context.Background(), tr, path, 300*time.Millisecond, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Less(t, elapsed, 2*time.Second, "WaitConnect must respect its ceiling")
}

func TestWaitConnect_SucceedsWhenSocketAppears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.sock")
	tr := NewUnix(path, 50*time.Millisecond)
	defer tr.Close()

	lnCh := make(chan net.Listener, 1)
	go func() {
		time.Sleep(150 * time.Millisecond)
		ln, err := net.Listen("unix", path)
		if err != nil {
			lnCh <- nil
			return
		}
		lnCh <- ln
		c, err := ln.Accept()
		if err == nil {
			defer c.Close()
			time.Sleep(100 * time.Millisecond)
		}
	}()

	err := WaitConnect(context.Background(), tr, path, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, tr.Connected())

	if ln := <-lnCh; ln != nil {
		ln.Close()
	}
}

func TestNew_SelectsImplementation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"websocket wins", Options{WebSocketURL: "ws://x", TCPAddr: "h:1", SocketPath: "/s"}, "*transport.WebSocketTransport"},
		{"tcp over unix", Options{TCPAddr: "h:1", SocketPath: "/s"}, "*transport.StreamTransport"},
		{"unix", Options{SocketPath: "/s"}, "*transport.StreamTransport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typeName(tr))
		})
	}

	_, err := New(Options{})
	assert.Error(t, err)
}

func typeName(v any) string {
	switch v.(type) {
	case *WebSocketTransport:
		return "*transport.WebSocketTransport"
	case *StreamTransport:
		return "*transport.StreamTransport"
	default:
		return "unknown"
	}
}

func TestWebSocketTransport_RoundTripAndClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		kind, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		_ = c.WriteMessage(kind, data)
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	tr := NewWebSocket(url, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"governor.now"}`)
	require.NoError(t, tr.WriteMessage(msg))

	got, err := tr.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, string(msg), string(got))

	_, err = tr.ReadMessage()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWebSocketTransport_ConnectRefused(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	tr := NewWebSocket("ws://"+addr+"/rpc", 200*time.Millisecond)
	err = tr.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
}
