package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdown renders summaries for the viewport, falling back to plain text when rendering fails.
type markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdown(width int) *markdown {
	md := &markdown{}
	md.resize(width)
	return md
}

func (md *markdown) resize(width int) {
	if width <= 0 || width == md.width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	md.renderer = r
	md.width = width
}

func (md *markdown) render(content string) string {
	if md.renderer == nil {
		return content
	}
	out, err := md.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
