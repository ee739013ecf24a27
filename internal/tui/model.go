// ABOUTME: Root Bubble Tea model: scrollback log, prompt, and governor status bar
// ABOUTME: Console commands run as tea.Cmds; their output arrives as EventMsgs

package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/display"
	"github.com/mauromedda/maude-go/internal/status"
)

const maxLines = 2000

// shared holds state that must survive Model value copies. The program is
// injected after tea.NewProgram copies the model.
type shared struct {
	program *tea.Program
	ctx     context.Context
}

// Model is the root Bubble Tea model.
type Model struct {
	sh     *shared
	con    *console.Console
	md     *MarkdownRenderer
	styles Styles
	label  string

	lines   []string
	partial string // in-progress streamed line
	busy    bool
	snap    status.Snapshot
	// recovery is a recovered snapshot that arrived while busy.
	recovery *status.Snapshot
	input   InputModel

	width, height int
}

// NewModel creates the root model. label is shown at the right of the
// status bar. The model starts busy; the doneMsg from Init clears it.
func NewModel(ctx context.Context, con *console.Console, label string) Model {
	return Model{
		busy:   true,
		sh:     &shared{ctx: ctx},
		con:    con,
		md:     NewMarkdownRenderer(""),
		styles: NewStyles(nil),
		label:  label,
		snap:   status.Snapshot{Level: status.LevelUnavailable},
		input:  NewInputModel("❯ "),
		width:  80,
		height: 24,
	}
}

// run executes fn off the UI goroutine and reports completion.
func (m Model) run(fn func(ctx context.Context)) tea.Cmd {
	ctx := m.sh.ctx
	return func() tea.Msg {
		fn(ctx)
		return doneMsg{}
	}
}

// Init starts the console: health banner and session bootstrap.
func (m Model) Init() tea.Cmd {
	return m.run(m.con.Start)
}

// Update routes messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case EventMsg:
		m = m.apply(msg.Event)
		return m, nil

	case StatusMsg:
		m.snap = msg.Snapshot
		if msg.Snapshot.Recovered {
			snap := msg.Snapshot
			if m.busy {
				m.recovery = &snap
				return m, nil
			}
			return m.recover(snap)
		}
		return m, nil

	case doneMsg:
		m.busy = false
		if m.recovery != nil {
			snap := *m.recovery
			m.recovery = nil
			return m.recover(snap)
		}
		return m, nil

	case SubmitMsg:
		if m.busy {
			m = m.apply(console.Event{Kind: console.KindDim, Text: "Busy; wait for the current command to finish."})
			return m, nil
		}
		m.busy = true
		text := msg.Text
		return m, m.run(func(ctx context.Context) { m.con.Handle(ctx, text) })

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlL:
			return m.startAction(m.con.LockSpec)
		case tea.KeyCtrlN:
			return m.startAction(m.con.NewSession)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// recover hands a recovered snapshot to the console as a busy command.
func (m Model) recover(snap status.Snapshot) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, m.run(func(ctx context.Context) { m.con.OnStatus(ctx, snap) })
}

func (m Model) startAction(fn func(context.Context)) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	return m, m.run(fn)
}

// apply appends an output event to the scrollback.
func (m Model) apply(ev console.Event) Model {
	switch ev.Kind {
	case console.KindAssistant:
		m.partial = m.styles.Assistant.Render("Assistant:") + " "
		return m
	case console.KindDelta:
		m.partial += ev.Text
		return m
	case console.KindEnd:
		m = m.appendText(m.partial)
		m.partial = ""
		return m
	case console.KindMarkdown:
		return m.appendText(m.md.Render(ev.Text, m.width))
	case console.KindUser:
		return m.appendText(m.styles.User.Render("You:") + " " + ev.Text)
	default:
		return m.appendText(m.styles.ForKind(ev.Kind).Render(ev.Text))
	}
}

func (m Model) appendText(text string) Model {
	lines := append(m.lines, strings.Split(text, "\n")...)
	if over := len(lines) - maxLines; over > 0 {
		lines = append([]string(nil), lines[over:]...)
	}
	m.lines = lines
	return m
}

// StatusBar renders the status line styled by the governor level.
func (m Model) StatusBar() string {
	text := m.con.StatusLine(m.snap)
	bar := m.styles.ForLevel(m.snap.Level)
	right := ""
	if m.label != "" {
		right = m.styles.Dim.Render(" " + display.Truncate(m.label, 30))
	}
	width := m.width - lipgloss.Width(right)
	return bar.Render(display.Truncate(text, max(width-2, 1))) + right
}

// View renders scrollback, separator, prompt, and status bar.
func (m Model) View() string {
	visible := m.lines
	if m.partial != "" {
		visible = append(append([]string(nil), visible...), strings.Split(m.partial, "\n")...)
	}
	room := max(m.height-3, 1)
	if len(visible) > room {
		visible = visible[len(visible)-room:]
	}

	var b strings.Builder
	for _, l := range visible {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	for range room - len(visible) {
		b.WriteByte('\n')
	}
	b.WriteString(m.styles.Border.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteByte('\n')
	b.WriteString(m.input.View(m.styles))
	b.WriteByte('\n')
	b.WriteString(m.StatusBar())
	return b.String()
}
