// ABOUTME: Session state machine: PLAN, PLAN_LOCKED, BUILD over a local spec draft
// ABOUTME: Goroutine-safe; daemon calls go through Backend and never run under the lock

package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mauromedda/maude-go/internal/display"
	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/log"
)

// Backend is the subset of the governor client the machine needs.
type Backend interface {
	AddConstraint(ctx context.Context, text, template string) error
	CreateSession(ctx context.Context, title string) (governor.Session, error)
	GetSession(ctx context.Context, id string) (governor.Session, error)
	ListSessions(ctx context.Context) ([]governor.SessionSummary, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
}

var _ Backend = (*governor.Client)(nil)

// LockResult describes the outcome of LockSpec and ResubmitPending.
type LockResult struct {
	// AlreadyLocked is set when the draft was locked before the call.
	AlreadyLocked bool
	// SubmitErr is the daemon submission failure, if any. The lock holds
	// regardless.
	SubmitErr error
	// PendingSubmit reports whether the locked draft still awaits submission.
	PendingSubmit bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for transitions.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// Machine owns the mode, the spec draft, and the active session cache.
type Machine struct {
	backend Backend
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu          sync.Mutex
	mode        Mode
	draft       Draft
	session     *governor.SessionSummary
	messages    []governor.Message
	summaries   []governor.SessionSummary
	transitions []Transition
	// gen changes whenever the draft is reset, so a submission that
	// completes afterwards does not touch the new draft.
	gen uint64
}

// New creates a machine in PLAN with an empty draft and no session.
func New(b Backend, opts ...Option) *Machine {
	m := &Machine{
		backend: b,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Named("workflow")
	}
	return m
}

// state derives the State. Callers hold m.mu.
func (m *Machine) state() State {
	switch {
	case m.mode == ModeBuild:
		return StateBuild
	case m.draft.Locked:
		return StatePlanLocked
	default:
		return StatePlan
	}
}

// record appends a transition when the state moved away from from.
// Callers hold m.mu.
func (m *Machine) record(from State, reason string) {
	to := m.state()
	if to == from {
		return
	}
	m.transitions = append(m.transitions, Transition{From: from, To: to, Reason: reason})
	m.logger.Debugw("state transition", "from", from, "to", to, "reason", reason)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state()
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Transitions returns the state changes recorded so far, oldest first.
func (m *Machine) Transitions() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// AppendPlan appends text to the draft and returns the draft length in
// grapheme clusters. A locked draft stays locked.
func (m *Machine) AppendPlan(text string) (int, error) {
	text = strings.TrimSpace(text)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeBuild {
		return 0, ErrInBuildMode
	}
	if text == "" {
		return 0, ErrEmptyPlan
	}
	if m.draft.Text != "" {
		m.draft.Text += "\n"
	}
	m.draft.Text += text
	return display.Graphemes(m.draft.Text), nil
}

// SetTemplate records a plan template on the draft and returns its
// canonical name.
func (m *Machine) SetTemplate(name string) (string, error) {
	canon, err := CanonicalTemplate(name)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeBuild {
		return "", ErrInBuildMode
	}
	m.draft.Template = canon
	return canon, nil
}

// ClearTemplate removes the template from the draft.
func (m *Machine) ClearTemplate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeBuild {
		return ErrInBuildMode
	}
	m.draft.Template = ""
	return nil
}

// LockSpec locks the draft locally and submits it as a constraint. The
// lock holds even when the submission fails; the failure is reported in
// LockResult.SubmitErr and the draft is flagged PendingSubmit.
func (m *Machine) LockSpec(ctx context.Context) (LockResult, error) {
	m.mu.Lock()
	if m.draft.Locked {
		res := LockResult{AlreadyLocked: true, PendingSubmit: m.draft.PendingSubmit}
		m.mu.Unlock()
		return res, nil
	}
	if strings.TrimSpace(m.draft.Text) == "" {
		m.mu.Unlock()
		return LockResult{}, ErrNothingToLock
	}
	from := m.state()
	m.draft.Locked = true
	m.draft.PendingSubmit = true
	m.record(from, "lock spec")
	text, tmpl, gen := m.draft.Text, m.draft.Template, m.gen
	m.mu.Unlock()

	return m.submit(ctx, text, tmpl, gen), nil
}

// ResubmitPending retries the submission of a locked draft whose earlier
// submission failed. It reports whether a submission was attempted.
func (m *Machine) ResubmitPending(ctx context.Context) (LockResult, bool) {
	m.mu.Lock()
	if !m.draft.Locked || !m.draft.PendingSubmit {
		m.mu.Unlock()
		return LockResult{}, false
	}
	text, tmpl, gen := m.draft.Text, m.draft.Template, m.gen
	m.mu.Unlock()

	return m.submit(ctx, text, tmpl, gen), true
}

func (m *Machine) submit(ctx context.Context, text, tmpl string, gen uint64) LockResult {
	err := m.backend.AddConstraint(ctx, text, tmpl)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		// The draft was reset while the call was in flight.
		return LockResult{SubmitErr: err}
	}
	if err != nil {
		m.logger.Warnw("spec submission failed", "error", err)
	} else {
		m.draft.PendingSubmit = false
	}
	return LockResult{SubmitErr: err, PendingSubmit: m.draft.PendingSubmit}
}

// Build enters BUILD. It requires a locked draft.
func (m *Machine) Build() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeBuild {
		return nil
	}
	if !m.draft.Locked || strings.TrimSpace(m.draft.Text) == "" {
		return ErrNotLocked
	}
	from := m.state()
	m.mode = ModeBuild
	m.record(from, "build")
	return nil
}

// SetMode switches mode. PLAN clears the lock and keeps the draft text;
// BUILD behaves like Build.
func (m *Machine) SetMode(mode Mode) error {
	switch mode {
	case ModeBuild:
		return m.Build()
	case ModePlan:
		m.mu.Lock()
		defer m.mu.Unlock()
		from := m.state()
		m.mode = ModePlan
		m.draft.Locked = false
		m.draft.PendingSubmit = false
		m.gen++
		m.record(from, "set mode PLAN")
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
}

// Draft returns a copy of the draft.
func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// AddMessage appends a message to the active session's local log.
func (m *Machine) AddMessage(role, content string) governor.Message {
	msg := governor.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	return msg
}

// Messages returns a copy of the message log.
func (m *Machine) Messages() []governor.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]governor.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// ChatHistory returns the message log in chat request form.
func (m *Machine) ChatHistory() []governor.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]governor.ChatMessage, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, governor.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// Snapshot returns a detached copy of the machine state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Mode:     m.mode,
		State:    m.state(),
		Draft:    m.draft,
		Messages: make([]governor.Message, len(m.messages)),
	}
	copy(snap.Messages, m.messages)
	if m.session != nil {
		s := *m.session
		snap.Session = &s
	}
	return snap
}

// StatusLine renders MODE, SPEC, and SESSION fields, followed by GOV when
// gov is not empty.
func (m *Machine) StatusLine(gov string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec := "UNLOCKED"
	if m.draft.Locked {
		spec = "LOCKED"
	}
	session := "none"
	if m.session != nil {
		session = m.session.ID
	}
	line := fmt.Sprintf("MODE=%s  SPEC=%s  SESSION=%s", m.mode, spec, session)
	if gov != "" {
		line += " GOV=" + gov
	}
	return line
}
