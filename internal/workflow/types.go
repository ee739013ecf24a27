// ABOUTME: Modes, derived states, the local spec draft, and transition records
// ABOUTME: A Snapshot is a detached copy of the machine for rendering

package workflow

import (
	"errors"
	"fmt"

	"github.com/mauromedda/maude-go/internal/governor"
)

// Mode is the user-facing working mode.
type Mode int

const (
	ModePlan Mode = iota
	ModeBuild
)

func (m Mode) String() string {
	switch m {
	case ModePlan:
		return "PLAN"
	case ModeBuild:
		return "BUILD"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State combines the mode with the draft's lock flag.
type State int

const (
	StatePlan State = iota
	StatePlanLocked
	StateBuild
)

func (s State) String() string {
	switch s {
	case StatePlan:
		return "PLAN"
	case StatePlanLocked:
		return "PLAN_LOCKED"
	case StateBuild:
		return "BUILD"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Draft is the client-local spec text. It reaches the daemon only when
// LockSpec submits it as a constraint.
type Draft struct {
	Text     string
	Locked   bool
	Template string
	// PendingSubmit is set when the draft is locked but the daemon has not
	// accepted it yet.
	PendingSubmit bool
}

// Transition records one state change.
type Transition struct {
	From   State
	To     State
	Reason string
}

// Snapshot is a copy of the machine state.
type Snapshot struct {
	Mode     Mode
	State    State
	Draft    Draft
	Session  *governor.SessionSummary
	Messages []governor.Message
}

// Sentinel errors for rejected operations. The console renders them as
// messages; none of them changes state.
var (
	ErrNothingToLock   = errors.New("nothing to lock: the spec draft is empty")
	ErrNotLocked       = errors.New("cannot enter BUILD mode without a locked spec")
	ErrInBuildMode     = errors.New("not allowed in BUILD mode; switch back to PLAN first")
	ErrEmptyPlan       = errors.New("plan text is empty")
	ErrNoSession       = errors.New("no active session")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrSessionRef      = errors.New("cannot resolve session")
)
