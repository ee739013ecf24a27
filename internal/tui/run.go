// ABOUTME: Entry points for the interactive frontends: the Bubble Tea program and line mode
// ABOUTME: App owns the program reference that console output and poller snapshots are sent to

package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/eventbus"
	"github.com/mauromedda/maude-go/internal/status"
)

// App runs the Bubble Tea frontend.
type App struct {
	mu      sync.Mutex
	program *tea.Program
	label   string
	in      io.Reader
	out     io.Writer
}

// NewApp creates an App. A nil in or out uses the terminal.
func NewApp(label string, in io.Reader, out io.Writer) *App {
	return &App{label: label, in: in, out: out}
}

// Emit forwards console output to the running program. Events emitted
// before Run or after exit are dropped.
func (a *App) Emit(ev console.Event) {
	a.send(EventMsg{Event: ev})
}

func (a *App) send(msg tea.Msg) {
	a.mu.Lock()
	p := a.program
	a.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var _ console.Emitter = (*App)(nil)

// Run starts the program and blocks until the user quits or ctx ends.
// Snapshots published on statuses update the status bar.
func (a *App) Run(ctx context.Context, con *console.Console, statuses *eventbus.Bus[status.Snapshot]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, con, a.label)
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if a.in != nil {
		opts = append(opts, tea.WithInput(a.in))
	}
	if a.out != nil {
		opts = append(opts, tea.WithOutput(a.out))
	}
	p := tea.NewProgram(m, opts...)
	m.sh.program = p

	a.mu.Lock()
	a.program = p
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.program = nil
		a.mu.Unlock()
	}()

	ch, unsub := statuses.Chan(8)
	defer unsub()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-ch:
				a.send(StatusMsg{Snapshot: snap})
			}
		}
	}()

	_, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("bubble tea: %w", err)
	}
	return nil
}
