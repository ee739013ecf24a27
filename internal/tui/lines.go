// ABOUTME: Line-mode frontend for non-terminal stdin: one command per input line
// ABOUTME: Printer renders console events to a writer with lipgloss styles

package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/eventbus"
	"github.com/mauromedda/maude-go/internal/status"
)

// Printer writes console events as styled lines.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
	md     *MarkdownRenderer
	width  int
}

// NewPrinter creates a Printer for w. Colors follow w's terminal profile.
func NewPrinter(w io.Writer, width int) *Printer {
	r := lipgloss.NewRenderer(w)
	style := "light"
	switch {
	case r.ColorProfile() == termenv.Ascii:
		style = "notty"
	case r.HasDarkBackground():
		style = "dark"
	}
	if width <= 0 {
		width = 80
	}
	return &Printer{w: w, styles: NewStyles(r), md: NewMarkdownRenderer(style), width: width}
}

// Emit writes ev.
func (p *Printer) Emit(ev console.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ev.Kind {
	case console.KindAssistant:
		fmt.Fprint(p.w, p.styles.Assistant.Render("Assistant:")+" ")
	case console.KindDelta:
		fmt.Fprint(p.w, ev.Text)
	case console.KindEnd:
		fmt.Fprintln(p.w)
	case console.KindMarkdown:
		fmt.Fprintln(p.w, p.md.Render(ev.Text, p.width))
	case console.KindUser:
		// The user's line is already on screen.
	default:
		fmt.Fprintln(p.w, p.styles.ForKind(ev.Kind).Render(ev.Text))
	}
}

var _ console.Emitter = (*Printer)(nil)

// statusPrinter prints the status line whenever the severity level changes.
func (p *Printer) statusPrinter(con *console.Console) func(status.Snapshot) {
	var mu sync.Mutex
	var last status.Level
	return func(snap status.Snapshot) {
		mu.Lock()
		changed := snap.Level != last
		last = snap.Level
		mu.Unlock()
		if !changed {
			return
		}
		p.mu.Lock()
		fmt.Fprintln(p.w, p.styles.ForLevel(snap.Level).Render(con.StatusLine(snap)))
		p.mu.Unlock()
	}
}

// latchRecovered keeps the latest recovered snapshot in ch, which must have
// a buffer of one. Other snapshots are ignored, so a long command cannot push
// a recovery out of the queue.
func latchRecovered(ch chan status.Snapshot) func(status.Snapshot) {
	return func(snap status.Snapshot) {
		if !snap.Recovered {
			return
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// RunLines reads commands from in until EOF or ctx ends. Recovery
// snapshots are handed to the console between commands.
func RunLines(ctx context.Context, con *console.Console, p *Printer, in io.Reader, statuses *eventbus.Bus[status.Snapshot]) error {
	unsubPrint := statuses.Subscribe(p.statusPrinter(con))
	defer unsubPrint()
	recovered := make(chan status.Snapshot, 1)
	unsub := statuses.Subscribe(latchRecovered(recovered))
	defer unsub()

	con.Start(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-recovered:
			con.OnStatus(ctx, snap)
		case line := <-lines:
			con.Handle(ctx, line)
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}
	}
}
