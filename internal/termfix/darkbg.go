// ABOUTME: Fixes the lipgloss background guess before bubbletea's init can query the terminal
// ABOUTME: MAUDE_THEME=light selects light styles; anything else assumes a dark terminal

package termfix

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// EnvTheme selects the terminal background: "light" or "dark".
const EnvTheme = "MAUDE_THEME"

// Dark reports whether the configured theme is dark.
func Dark() bool {
	return !strings.EqualFold(strings.TrimSpace(os.Getenv(EnvTheme)), "light")
}

func init() {
	// An explicit background skips the OSC 11 query lipgloss would
	// otherwise send from bubbletea's init, which leaks into stdin.
	// This package must not import bubbletea, directly or transitively.
	lipgloss.SetHasDarkBackground(Dark())
}
