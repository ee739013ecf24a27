// ABOUTME: Output events emitted by the console and the Emitter that receives them
// ABOUTME: Frontends (TUI, line mode) decide how each Kind is styled

package console

// Kind classifies an output event.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarn
	KindError
	KindDim
	// KindHeading is a bold title line.
	KindHeading
	// KindUser echoes the user's chat message.
	KindUser
	// KindAssistant opens an assistant reply; KindDelta events follow it.
	KindAssistant
	// KindDelta continues the current line.
	KindDelta
	// KindEnd terminates a streamed reply.
	KindEnd
	// KindMarkdown is rendered as markdown by the frontend.
	KindMarkdown
)

// Event is one piece of console output.
type Event struct {
	Kind Kind
	Text string
}

// Emitter receives console output. Implementations must be safe for use
// from the goroutine running Handle.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev Event) { f(ev) }
