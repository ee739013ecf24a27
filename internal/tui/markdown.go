// ABOUTME: Markdown renderer wrapper around glamour for spec drafts and template outlines
// ABOUTME: Caches rendered results keyed by content hash and width

package tui

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer wraps glamour to render markdown with caching. Safe for
// concurrent use.
type MarkdownRenderer struct {
	mu    sync.Mutex
	cache map[string]string // "hash:width" -> rendered
	style string
}

// NewMarkdownRenderer creates a renderer. An empty style selects glamour's
// automatic light/dark detection; "notty" renders plain text.
func NewMarkdownRenderer(style string) *MarkdownRenderer {
	return &MarkdownRenderer{cache: make(map[string]string), style: style}
}

// Render returns the terminal-styled rendering of md wrapped at width.
// On renderer failure the raw markdown is returned.
func (r *MarkdownRenderer) Render(md string, width int) string {
	if md == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	key := cacheKey(md, width)
	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached
	}

	styleOpt := glamour.WithAutoStyle()
	if r.style != "" {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	rendered = strings.TrimLeft(strings.TrimRight(rendered, "\n "), "\n")

	r.mu.Lock()
	r.cache[key] = rendered
	r.mu.Unlock()
	return rendered
}

func cacheKey(content string, width int) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x:%d", h[:8], width)
}
