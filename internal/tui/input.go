// ABOUTME: InputModel is a single-line rune editor with history for the TUI prompt
// ABOUTME: Value semantics like the other Bubble Tea leaves; Enter emits a SubmitMsg

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SubmitMsg carries a submitted input line.
type SubmitMsg struct{ Text string }

// InputModel edits one line of input.
type InputModel struct {
	runes   []rune
	cursor  int
	prompt  string
	history []string
	histPos int // len(history) means "not browsing"
}

// NewInputModel creates an empty input with the given prompt.
func NewInputModel(prompt string) InputModel {
	return InputModel{prompt: prompt}
}

// Text returns the current line.
func (m InputModel) Text() string { return string(m.runes) }

// SetText replaces the line and moves the cursor to its end.
func (m InputModel) SetText(s string) InputModel {
	m.runes = []rune(s)
	m.cursor = len(m.runes)
	return m
}

// Update handles key presses.
func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyRunes:
		m = m.insert(key.Runes)
	case tea.KeySpace:
		m = m.insert([]rune{' '})
	case tea.KeyEnter:
		text := strings.TrimSpace(m.Text())
		if text == "" {
			return m, nil
		}
		m.history = append(m.history, text)
		m.histPos = len(m.history)
		m.runes = nil
		m.cursor = 0
		return m, func() tea.Msg { return SubmitMsg{Text: text} }
	case tea.KeyBackspace:
		if m.cursor > 0 {
			m.runes = append(m.runes[:m.cursor-1:m.cursor-1], m.runes[m.cursor:]...)
			m.cursor--
		}
	case tea.KeyDelete:
		if m.cursor < len(m.runes) {
			m.runes = append(m.runes[:m.cursor:m.cursor], m.runes[m.cursor+1:]...)
		}
	case tea.KeyLeft:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyRight:
		if m.cursor < len(m.runes) {
			m.cursor++
		}
	case tea.KeyHome, tea.KeyCtrlA:
		m.cursor = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		m.cursor = len(m.runes)
	case tea.KeyCtrlU:
		m.runes = append([]rune(nil), m.runes[m.cursor:]...)
		m.cursor = 0
	case tea.KeyUp:
		if m.histPos > 0 {
			m.histPos--
			m = m.SetText(m.history[m.histPos])
		}
	case tea.KeyDown:
		if m.histPos < len(m.history)-1 {
			m.histPos++
			m = m.SetText(m.history[m.histPos])
		} else {
			m.histPos = len(m.history)
			m = m.SetText("")
		}
	}
	return m, nil
}

func (m InputModel) insert(rs []rune) InputModel {
	out := make([]rune, 0, len(m.runes)+len(rs))
	out = append(out, m.runes[:m.cursor]...)
	out = append(out, rs...)
	out = append(out, m.runes[m.cursor:]...)
	m.runes = out
	m.cursor += len(rs)
	return m
}

// View renders the prompt and the line with a block cursor.
func (m InputModel) View(s Styles) string {
	before := string(m.runes[:m.cursor])
	cursor := " "
	after := ""
	if m.cursor < len(m.runes) {
		cursor = string(m.runes[m.cursor])
		after = string(m.runes[m.cursor+1:])
	}
	return s.Prompt.Render(m.prompt) + before + s.Prompt.Reverse(true).Render(cursor) + after
}
