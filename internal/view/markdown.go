package view

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// RenderMarkdown renders md for a terminal width cells wide, using the same
// color profile as the rest of the view. On a rendering error the source is
// returned as is.
func RenderMarkdown(md string, width int) string {
	opts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(styles.DarkStyle),
		glamour.WithColorProfile(lipgloss.ColorProfile()),
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
