// ABOUTME: Console dispatcher: turns parsed intents into workflow operations and governor calls
// ABOUTME: All output flows through an Emitter; errors are rendered, never returned

package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/intent"
	"github.com/mauromedda/maude-go/internal/log"
	"github.com/mauromedda/maude-go/internal/status"
	"github.com/mauromedda/maude-go/internal/workflow"
)

// Governor is the daemon surface the console uses directly.
type Governor interface {
	Health(ctx context.Context) (governor.Health, error)
	Now(ctx context.Context) (governor.Now, error)
	Status(ctx context.Context) (governor.Status, error)
	ChatStream(ctx context.Context, req governor.ChatRequest) (*governor.ChatStream, error)
	CommitPending(ctx context.Context) (json.RawMessage, error)
	CommitProceed(ctx context.Context, req governor.ProceedRequest) (json.RawMessage, error)
	CommitRevise(ctx context.Context, newAnchor string) (json.RawMessage, error)
}

var _ Governor = (*governor.Client)(nil)

// DefaultCallTimeout bounds every non-streaming daemon call.
const DefaultCallTimeout = 30 * time.Second

// Option configures a Console.
type Option func(*Console)

// WithModel sets the chat model name sent with chat.stream.
func WithModel(model string) Option {
	return func(c *Console) { c.model = model }
}

// WithCallTimeout bounds non-streaming calls.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Console) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithGovernorMode sets the governor mode the user expects. Start warns
// when the daemon reports a different one.
func WithGovernorMode(mode string) Option {
	return func(c *Console) { c.expectMode = mode }
}

// WithLogger sets the console's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Console) { c.logger = l }
}

// Console routes user input. It is safe to call Handle from one goroutine
// at a time; frontends serialize input.
type Console struct {
	gov         Governor
	machine     *workflow.Machine
	out         Emitter
	model       string
	callTimeout time.Duration
	expectMode  string
	logger      *zap.SugaredLogger
}

// New creates a console over gov and m writing to out.
func New(gov Governor, m *workflow.Machine, out Emitter, opts ...Option) *Console {
	c := &Console{
		gov:         gov,
		machine:     m,
		out:         out,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Named("console")
	}
	return c
}

// Machine returns the workflow machine the console drives.
func (c *Console) Machine() *workflow.Machine { return c.machine }

func (c *Console) emit(kind Kind, text string) {
	c.out.Emit(Event{Kind: kind, Text: text})
}

func (c *Console) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

// Start prints the health banner and activates a session. It never fails:
// an unreachable governor leaves the console in degraded mode.
func (c *Console) Start(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	h, err := c.gov.Health(cctx)
	cancel()
	if err != nil {
		c.logger.Warnw("health check failed", "error", err)
		c.emit(KindWarn, "Governor unreachable: "+err.Error())
		c.emit(KindDim, "Local planning still works; status will update when the governor is back.")
		c.emit(KindDim, `Type "help" for available commands.`)
		return
	}
	c.emit(KindSuccess, healthBanner(h))
	if c.expectMode != "" && !strings.EqualFold(c.expectMode, h.Governor.Mode) {
		c.emit(KindWarn, fmt.Sprintf("Governor runs in %s mode; configured mode is %s.", h.Governor.Mode, c.expectMode))
	}
	c.bootstrap(ctx)
	c.emit(KindDim, `Type "help" for available commands.`)
}

func (c *Console) bootstrap(ctx context.Context) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	sess, created, err := c.machine.Bootstrap(cctx)
	switch {
	case err != nil:
		c.emit(KindWarn, "Session unavailable: "+err.Error())
	case created:
		c.emit(KindDim, "Created session "+sess.ID)
	default:
		c.emit(KindDim, sessionLine("Resumed session", sess))
	}
}

// Handle parses one line of input and dispatches it. Blank input is ignored.
func (c *Console) Handle(ctx context.Context, input string) {
	in := intent.Parse(input)
	if in.Raw == "" {
		return
	}
	c.Dispatch(ctx, in)
}

// Dispatch runs the handler for in.
func (c *Console) Dispatch(ctx context.Context, in intent.Intent) {
	c.logger.Debugw("dispatch", "intent", in.Kind, "arg", in.Arg)
	switch in.Kind {
	case intent.KindHelp:
		c.emit(KindInfo, HelpText)
	case intent.KindStatus:
		c.status(ctx)
	case intent.KindPlan:
		c.plan(in.Arg)
	case intent.KindPlanTemplate:
		c.planTemplate(in.Arg)
	case intent.KindClearTemplate:
		c.clearTemplate()
	case intent.KindLockSpec:
		c.LockSpec(ctx)
	case intent.KindBuild:
		c.build()
	case intent.KindShowSpec:
		c.showSpec()
	case intent.KindShowDiff:
		c.showDiff(ctx)
	case intent.KindApply:
		c.apply(ctx)
	case intent.KindRollback:
		c.rollback(ctx)
	case intent.KindWhy:
		c.why(ctx)
	case intent.KindSessions:
		c.sessions(ctx)
	case intent.KindSwitchSession:
		c.switchSession(ctx, in.Arg)
	case intent.KindDeleteSession:
		c.deleteSession(ctx, in.Arg)
	default:
		c.chat(ctx, in.Raw)
	}
}

// OnStatus reacts to poller snapshots. When the governor comes back, a
// locked draft that could not be submitted earlier is resubmitted.
func (c *Console) OnStatus(ctx context.Context, snap status.Snapshot) {
	if !snap.Recovered {
		return
	}
	c.emit(KindSuccess, "Governor reachable again.")
	cctx, cancel := c.callCtx(ctx)
	defer cancel()
	if res, attempted := c.machine.ResubmitPending(cctx); attempted {
		if res.SubmitErr != nil {
			c.emit(KindWarn, "Resubmitting locked spec failed: "+res.SubmitErr.Error())
		} else {
			c.emit(KindSuccess, "Locked spec submitted to the governor.")
		}
	}
	// Bootstrapping resets the draft, so it only runs when there is none.
	if c.machine.ActiveSession() == "" {
		if c.machine.Draft().Text == "" {
			c.bootstrap(ctx)
		} else {
			c.emit(KindDim, "No active session. Use 'sessions' and 'switch <#N>' to pick one.")
		}
	}
}

// StatusLine renders the status bar text for snap.
func (c *Console) StatusLine(snap status.Snapshot) string {
	return c.machine.StatusLine(snap.Label())
}
