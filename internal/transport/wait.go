// ABOUTME: Bounded connect wait: re-attempts Connect at a fixed interval up to a ceiling
// ABOUTME: Built on cenkalti/backoff constant backoff; expiry surfaces as *ConnectError

package transport

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// WaitConnect calls t.Connect until it succeeds, ctx ends, or timeout
// elapses, sleeping interval between attempts. It never blocks longer than
// timeout. The returned error is always a *ConnectError (possibly wrapping
// the context error).
func WaitConnect(ctx context.Context, t Transport, addr string, timeout, interval time.Duration) error {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := backoff.Retry(waitCtx, func() (struct{}, error) {
		return struct{}{}, t.Connect(waitCtx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err == nil {
		return nil
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConnectError{Addr: addr, Err: err}
}
