package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer converts response Markdown to styled terminal output.
// A nil renderer degrades to plain text, so rendering never fails the UI.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdownRenderer(width int) *markdownRenderer {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return &markdownRenderer{renderer: r, width: width}
}

// SetWidth recreates the renderer when the wrap width changes.
func (m *markdownRenderer) SetWidth(width int) {
	if m == nil || width <= 0 || m.width == width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	m.renderer = r
	m.width = width
}

// Render returns the styled text, or the input unchanged on any failure.
func (m *markdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}
	out, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(out, "\n")
}
