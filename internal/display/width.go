// ABOUTME: Display width, grapheme counting, and truncation for the status line and lists
// ABOUTME: Grapheme-aware via uniseg; cell widths via go-runewidth; ANSI sequences count as zero

package display

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// Graphemes returns the number of user-perceived characters in s.
func Graphemes(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// Width returns the terminal cell width of s. ANSI escape sequences
// contribute zero width.
func Width(s string) int {
	s = StripANSI(s)
	w := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		w += clusterWidth(cluster)
	}
	return w
}

func clusterWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	return runewidth.RuneWidth(r)
}

// Truncate shortens plain text s to at most max cells, ending with an
// ellipsis when anything was cut. Grapheme clusters are never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if Width(s) <= max {
		return s
	}

	limit := max - runewidth.StringWidth(ellipsis)
	var b strings.Builder
	w := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		cw := clusterWidth(cluster)
		if w+cw > limit {
			break
		}
		b.WriteString(cluster)
		w += cw
	}
	return b.String() + ellipsis
}

// PadRight pads s with spaces to width cells. Longer strings are returned as is.
func PadRight(s string, width int) string {
	if w := Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// FirstLine returns the first line of s, marking dropped lines with an ellipsis.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " " + ellipsis
	}
	return s
}

// StripANSI removes CSI and OSC escape sequences from s.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\x1b' {
			i = skipEscape(s, i)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// skipEscape returns the index just past the escape sequence starting at i.
func skipEscape(s string, i int) int {
	i++ // ESC
	if i >= len(s) {
		return i
	}
	switch s[i] {
	case '[':
		for i++; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7E {
				return i + 1
			}
		}
		return i
	case ']':
		for i++; i < len(s); i++ {
			if s[i] == '\x07' {
				return i + 1
			}
			if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return i
	default:
		return i + 1
	}
}
