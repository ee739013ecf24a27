// ABOUTME: Governor status poller: calls governor.now on a fixed interval and caches the result
// ABOUTME: Failures and panics are absorbed into an "unavailable" snapshot; nothing escapes Run

package status

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mauromedda/maude-go/internal/eventbus"
	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/log"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 3 * time.Second
)

// ErrNotPolled is the Err of the snapshot held before the first poll.
var ErrNotPolled = errors.New("status: not polled yet")

// Level is the display severity derived from the status pill.
type Level string

const (
	LevelOK          Level = "ok"
	LevelWarn        Level = "warn"
	LevelBlocked     Level = "blocked"
	LevelUnavailable Level = "unavailable"
)

// LevelFor derives the severity of a governor.now status pill.
func LevelFor(pill string) Level {
	p := strings.ToLower(pill)
	switch {
	case strings.Contains(p, "violation"), strings.Contains(p, "blocked"):
		return LevelBlocked
	case strings.Contains(p, "warn"), strings.Contains(p, "degraded"):
		return LevelWarn
	default:
		return LevelOK
	}
}

// Fetcher is the single daemon call the poller makes.
type Fetcher interface {
	Now(ctx context.Context) (governor.Now, error)
}

// Snapshot is one poll outcome. Available snapshots carry Now; unavailable
// ones carry Err.
type Snapshot struct {
	Available bool
	Now       governor.Now
	Level     Level
	Err       error
	UpdatedAt time.Time
	// Failures counts consecutive failed polls.
	Failures int
	// Recovered is set on the first success after a failure.
	Recovered bool
}

// Label is the short text shown in the status bar.
func (s Snapshot) Label() string {
	if !s.Available {
		return string(LevelUnavailable)
	}
	if s.Now.Status != "" {
		return s.Now.Status
	}
	return string(s.Level)
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds each poll.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBus publishes every snapshot on bus.
func WithBus(bus *eventbus.Bus[Snapshot]) Option {
	return func(p *Poller) { p.bus = bus }
}

// WithLogger sets the poller's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Poller) { p.logger = l }
}

// Poller polls a Fetcher and caches the latest Snapshot.
type Poller struct {
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration
	bus      *eventbus.Bus[Snapshot]
	logger   *zap.SugaredLogger
	reset    chan time.Duration

	mu     sync.RWMutex
	latest Snapshot
}

// New creates a poller. Run starts it.
func New(f Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetch:    f,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		reset:    make(chan time.Duration, 1),
		latest:   Snapshot{Level: LevelUnavailable, Err: ErrNotPolled},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Named("status")
	}
	return p
}

// Latest returns the cached snapshot.
func (p *Poller) Latest() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// SetInterval changes the poll interval of a running poller. Non-positive
// values are ignored.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	for {
		select {
		case p.reset <- d:
			return
		default:
		}
		// Replace a pending change that Run has not consumed yet.
		select {
		case <-p.reset:
		default:
		}
	}
}

// Run polls immediately and then on every tick until ctx ends. It always
// returns nil.
func (p *Poller) Run(ctx context.Context) error {
	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-p.reset:
			p.logger.Debugw("poll interval changed", "interval", d)
			ticker.Reset(d)
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one poll, updates the cache, publishes the snapshot, and
// returns it.
func (p *Poller) Poll(ctx context.Context) Snapshot {
	now, err := p.fetchNow(ctx)

	p.mu.Lock()
	prev := p.latest
	next := Snapshot{UpdatedAt: time.Now()}
	if err != nil {
		next.Level = LevelUnavailable
		next.Err = err
		next.Failures = prev.Failures + 1
		next.Now = prev.Now
	} else {
		next.Available = true
		next.Now = now
		next.Level = LevelFor(now.Status)
		next.Recovered = !prev.Available && prev.Failures > 0
	}
	p.latest = next
	p.mu.Unlock()

	switch {
	case err != nil && next.Failures == 1:
		p.logger.Warnw("governor unavailable", "error", err)
	case err != nil:
		p.logger.Debugw("governor still unavailable", "failures", next.Failures, "error", err)
	case next.Recovered:
		p.logger.Infow("governor available again", "status", now.Status)
	}

	p.bus.Publish(next)
	return next
}

func (p *Poller) fetchNow(ctx context.Context) (now governor.Now, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("status: poll panicked: %v", r)
		}
	}()
	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.fetch.Now(pollCtx)
}
