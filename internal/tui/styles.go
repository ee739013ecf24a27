// ABOUTME: Lipgloss palette for console output kinds and the status bar severity levels
// ABOUTME: Styles are built per renderer so line mode honors its writer's color profile

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/status"
)

// Styles holds the styles used by both frontends.
type Styles struct {
	Info      lipgloss.Style
	Success   lipgloss.Style
	Warn      lipgloss.Style
	Error     lipgloss.Style
	Dim       lipgloss.Style
	Heading   lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Prompt    lipgloss.Style
	Border    lipgloss.Style

	BarOK          lipgloss.Style
	BarWarn        lipgloss.Style
	BarBlocked     lipgloss.Style
	BarUnavailable lipgloss.Style
}

// NewStyles builds the palette for r. A nil renderer uses lipgloss's default.
func NewStyles(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	bar := r.NewStyle().Padding(0, 1).Bold(true)
	return Styles{
		Info:      r.NewStyle(),
		Success:   r.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:      r.NewStyle().Foreground(lipgloss.Color("3")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("1")),
		Dim:       r.NewStyle().Faint(true),
		Heading:   r.NewStyle().Bold(true),
		User:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		Prompt:    r.NewStyle().Foreground(lipgloss.Color("5")),
		Border:    r.NewStyle().Foreground(lipgloss.Color("8")),

		BarOK:          bar.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2")),
		BarWarn:        bar.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")),
		BarBlocked:     bar.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")),
		BarUnavailable: bar.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")),
	}
}

// ForKind returns the style for a console event kind.
func (s Styles) ForKind(k console.Kind) lipgloss.Style {
	switch k {
	case console.KindSuccess:
		return s.Success
	case console.KindWarn:
		return s.Warn
	case console.KindError:
		return s.Error
	case console.KindDim:
		return s.Dim
	case console.KindHeading:
		return s.Heading
	case console.KindUser:
		return s.User
	case console.KindAssistant:
		return s.Assistant
	default:
		return s.Info
	}
}

// ForLevel returns the status bar style for a severity level.
func (s Styles) ForLevel(l status.Level) lipgloss.Style {
	switch l {
	case status.LevelOK:
		return s.BarOK
	case status.LevelWarn:
		return s.BarWarn
	case status.LevelBlocked:
		return s.BarBlocked
	default:
		return s.BarUnavailable
	}
}
