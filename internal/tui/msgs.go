// ABOUTME: Bubble Tea messages bridging console output, poller snapshots, and finished commands
// ABOUTME: Produced off the UI goroutine and delivered through Program.Send

package tui

import (
	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/status"
)

// EventMsg carries one console output event.
type EventMsg struct{ Event console.Event }

// StatusMsg carries a poller snapshot.
type StatusMsg struct{ Snapshot status.Snapshot }

// doneMsg reports that a console command finished.
type doneMsg struct{}
