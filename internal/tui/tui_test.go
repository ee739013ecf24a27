// ABOUTME: Tests for the TUI model, prompt editing, styles, and the line-mode frontend
// ABOUTME: Drives Update directly and runs console commands synchronously

package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/display"
	"github.com/mauromedda/maude-go/internal/eventbus"
	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/rpc"
	"github.com/mauromedda/maude-go/internal/status"
	"github.com/mauromedda/maude-go/internal/transport/transporttest"
	"github.com/mauromedda/maude-go/internal/workflow"
)

// newConsole builds a console whose daemon refuses connections, so every
// governor call fails fast and local commands work.
func newConsole(t *testing.T, out console.Emitter) *console.Console {
	t.Helper()
	tr, peer := transporttest.Pipe()
	peer.FailConnect(assert.AnError)
	rc := rpc.New(tr, rpc.WithLogger(zap.NewNop().Sugar()))
	t.Cleanup(func() { rc.Close() })
	gov := governor.NewClient(rc, "ctx")
	m := workflow.New(gov, workflow.WithLogger(zap.NewNop().Sugar()))
	return console.New(gov, m, out, console.WithLogger(zap.NewNop().Sugar()))
}

// started returns a model whose startup command has finished.
func started(t *testing.T, con *console.Console, label string) Model {
	t.Helper()
	next, cmd := NewModel(context.Background(), con, label).Update(doneMsg{})
	require.Nil(t, cmd)
	return next.(Model)
}

func typeText(m InputModel, s string) InputModel {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestInputModel_EditAndSubmit(t *testing.T) {
	m := NewInputModel("> ")
	m = typeText(m, "plan")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = typeText(m, "APJ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = typeText(m, "P")
	assert.Equal(t, "plan APJ", m.Text())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = typeText(m, "I")
	assert.Equal(t, "plan API", m.Text())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SubmitMsg{Text: "plan API"}, cmd())
	assert.Empty(t, m.Text())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "plan API", m.Text(), "history recall")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, m.Text())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "empty line is not submitted")
}

func TestInputModel_CtrlUAndDelete(t *testing.T) {
	m := NewInputModel("> ").SetText("hello world")
	for range 5 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "hello orld", m.Text())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, "orld", m.Text())
}

func TestModel_SubmitRunsConsoleCommand(t *testing.T) {
	var events []console.Event
	con := newConsole(t, console.EmitterFunc(func(ev console.Event) { events = append(events, ev) }))
	m := started(t, con, "proj")

	next, cmd := m.Update(SubmitMsg{Text: "plan REST API"})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	next, _ = m.Update(SubmitMsg{Text: "ignored"})
	m = next.(Model)
	assert.Contains(t, m.View(), "Busy")

	msg := cmd()
	assert.Equal(t, doneMsg{}, msg)
	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.busy)

	require.Len(t, events, 1)
	assert.Equal(t, "Added to spec draft (8 chars)", events[0].Text)
	assert.Equal(t, "REST API", con.Machine().Draft().Text)
}

func TestModel_CtrlLLocksSpec(t *testing.T) {
	con := newConsole(t, console.EmitterFunc(func(console.Event) {}))
	_, err := con.Machine().AppendPlan("spec")
	require.NoError(t, err)
	m := started(t, con, "")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	cmd()
	_, _ = next.Update(doneMsg{})

	d := con.Machine().Draft()
	assert.True(t, d.Locked)
	assert.True(t, d.PendingSubmit, "daemon unreachable, submission pending")
}

func TestModel_StreamedReplyAndView(t *testing.T) {
	con := newConsole(t, console.EmitterFunc(func(console.Event) {}))
	m := NewModel(context.Background(), con, "proj")
	m.styles = NewStyles(nil)

	for _, ev := range []console.Event{
		{Kind: console.KindUser, Text: "hi"},
		{Kind: console.KindAssistant},
		{Kind: console.KindDelta, Text: "Hel"},
		{Kind: console.KindDelta, Text: "lo"},
	} {
		next, _ := m.Update(EventMsg{Event: ev})
		m = next.(Model)
	}
	view := display.StripANSI(m.View())
	assert.Contains(t, view, "You: hi")
	assert.Contains(t, view, "Assistant: Hello")

	next, _ := m.Update(EventMsg{Event: console.Event{Kind: console.KindEnd}})
	m = next.(Model)
	assert.Empty(t, m.partial)
	assert.Contains(t, display.StripANSI(m.lines[len(m.lines)-1]), "Hello")
}

func TestModel_StatusBarFollowsSnapshots(t *testing.T) {
	con := newConsole(t, console.EmitterFunc(func(console.Event) {}))
	m := started(t, con, "myproj")

	bar := display.StripANSI(m.StatusBar())
	assert.Contains(t, bar, "MODE=PLAN  SPEC=UNLOCKED  SESSION=none GOV=unavailable")
	assert.Contains(t, bar, "myproj")

	next, cmd := m.Update(StatusMsg{Snapshot: status.Snapshot{Available: true, Level: status.LevelBlocked, Now: governor.Now{Status: "VIOLATION"}}})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Contains(t, display.StripANSI(m.StatusBar()), "GOV=VIOLATION")

	_, cmd = m.Update(StatusMsg{Snapshot: status.Snapshot{Available: true, Recovered: true}})
	assert.NotNil(t, cmd, "recovery hands off to the console")
}

func TestModel_SubmitDuringStartupIsRefused(t *testing.T) {
	con := newConsole(t, console.EmitterFunc(func(console.Event) {}))
	m := NewModel(context.Background(), con, "")
	require.NotNil(t, m.Init())

	next, cmd := m.Update(SubmitMsg{Text: "plan keep this draft"})
	m = next.(Model)
	assert.Nil(t, cmd, "no command runs alongside startup")
	assert.Contains(t, m.View(), "Busy")
	assert.Empty(t, con.Machine().Draft().Text)

	next, _ = m.Update(doneMsg{})
	m = next.(Model)
	_, cmd = m.Update(SubmitMsg{Text: "plan keep this draft"})
	assert.NotNil(t, cmd)
}

func TestModel_RecoveryWaitsForBusyCommand(t *testing.T) {
	con := newConsole(t, console.EmitterFunc(func(console.Event) {}))
	m := started(t, con, "")

	next, cmd := m.Update(SubmitMsg{Text: "plan draft"})
	m = next.(Model)
	require.NotNil(t, cmd)

	next, rcmd := m.Update(StatusMsg{Snapshot: status.Snapshot{Available: true, Recovered: true}})
	m = next.(Model)
	assert.Nil(t, rcmd, "recovery is queued while a command runs")
	require.NotNil(t, m.recovery)
	assert.True(t, m.snap.Available, "status bar still updates")

	next, rcmd = m.Update(cmd())
	m = next.(Model)
	require.NotNil(t, rcmd, "queued recovery runs once the command is done")
	assert.True(t, m.busy)
	assert.Nil(t, m.recovery)

	next, rcmd = m.Update(rcmd())
	m = next.(Model)
	assert.Nil(t, rcmd)
	assert.False(t, m.busy)
}

func TestModel_ScrollbackIsBounded(t *testing.T) {
	con := newConsole(t, console.EmitterFunc(func(console.Event) {}))
	m := NewModel(context.Background(), con, "")
	for i := range maxLines + 10 {
		m = m.apply(console.Event{Kind: console.KindInfo, Text: strings.Repeat("x", i%3+1)})
	}
	assert.Len(t, m.lines, maxLines)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	m = next.(Model)
	assert.Equal(t, 10, strings.Count(m.View(), "\n")+1)
}

func TestStyles_ForLevel(t *testing.T) {
	s := NewStyles(nil)
	assert.Equal(t, s.BarBlocked, s.ForLevel(status.LevelBlocked))
	assert.Equal(t, s.BarUnavailable, s.ForLevel(status.LevelUnavailable))
	assert.Equal(t, s.Warn, s.ForKind(console.KindWarn))
}

func TestMarkdownRenderer_CachesAndFallsBack(t *testing.T) {
	r := NewMarkdownRenderer("notty")
	out := r.Render("# Title\n\nbody text", 40)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")
	assert.Equal(t, out, r.Render("# Title\n\nbody text", 40))
	assert.Empty(t, r.Render("", 40))
}

func TestRunLines_HandlesInputUntilEOF(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 80)
	con := newConsole(t, p)
	bus := eventbus.New[status.Snapshot]()

	in := strings.NewReader("plan offline work\nshow spec\nhelp\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, RunLines(ctx, con, p, in, bus))

	out := display.StripANSI(buf.String())
	assert.Contains(t, out, "Governor unreachable")
	assert.Contains(t, out, "Added to spec draft (12 chars)")
	assert.Contains(t, out, "Spec Draft (UNLOCKED)")
	assert.Contains(t, out, "offline work")
	assert.Contains(t, out, "Commands:")
}

func TestLatchRecovered_SurvivesSnapshotBursts(t *testing.T) {
	bus := eventbus.New[status.Snapshot]()
	ch := make(chan status.Snapshot, 1)
	unsub := bus.Subscribe(latchRecovered(ch))
	defer unsub()

	for range 10 {
		bus.Publish(status.Snapshot{Level: status.LevelUnavailable, Failures: 1})
	}
	bus.Publish(status.Snapshot{Available: true, Recovered: true, Level: status.LevelOK})
	for range 10 {
		bus.Publish(status.Snapshot{Available: true, Level: status.LevelOK})
	}

	require.Len(t, ch, 1)
	snap := <-ch
	assert.True(t, snap.Recovered)
	assert.Equal(t, status.LevelOK, snap.Level)
}
