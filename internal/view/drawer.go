package view

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	drawerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1)

	drawerBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	scrollbarTrackStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("236"))

	scrollbarHandleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
)

// Drawer shows a scrollable detail body such as a task result or a batch.
type Drawer struct {
	viewport viewport.Model
	title    string
	body     string
	markdown bool
	open     bool
	ready    bool
}

func NewDrawer(width, height int) *Drawer {
	d := &Drawer{}
	d.SetSize(width, height)
	return d
}

func (d *Drawer) SetSize(width, height int) {
	// One column for the scrollbar, one row for the title.
	vpWidth := width
	if width > 0 {
		vpWidth = width - 1
	}
	vpHeight := height
	if height > 1 {
		vpHeight = height - 1
	}
	if !d.ready {
		d.viewport = viewport.New(vpWidth, vpHeight)
		d.ready = true
	} else {
		d.viewport.Width = vpWidth
		d.viewport.Height = vpHeight
	}
	d.updateContent()
}

// Show opens the drawer on body, scrolled to the top.
func (d *Drawer) Show(title, body string) {
	d.show(title, body, false)
}

// ShowMarkdown is Show for a Markdown body. It is re-rendered on resize.
func (d *Drawer) ShowMarkdown(title, body string) {
	d.show(title, body, true)
}

func (d *Drawer) show(title, body string, markdown bool) {
	d.title = title
	d.body = body
	d.markdown = markdown
	d.open = true
	d.updateContent()
	d.viewport.GotoTop()
}

func (d *Drawer) Close() {
	d.open = false
	d.title = ""
	d.body = ""
	d.markdown = false
	d.updateContent()
}

func (d *Drawer) IsOpen() bool { return d.open }

func (d *Drawer) updateContent() {
	width := d.viewport.Width
	if d.markdown {
		d.viewport.SetContent(RenderMarkdown(d.body, width))
		return
	}
	content := d.body
	if width > 0 {
		content = drawerBodyStyle.Width(width).Render(content)
	} else {
		content = drawerBodyStyle.Render(content)
	}
	d.viewport.SetContent(content)
}

func (d *Drawer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd
}

func (d *Drawer) View() string {
	if !d.open {
		return ""
	}
	title := drawerTitleStyle.Render(d.title)
	if d.viewport.TotalLineCount() <= d.viewport.Height {
		return title + "\n" + d.viewport.View()
	}

	h := d.viewport.Height
	handlePos := int(float64(h-1) * d.viewport.ScrollPercent())

	var sb strings.Builder
	for i := 0; i < h; i++ {
		if i == handlePos {
			sb.WriteString(scrollbarHandleStyle.Render("┃"))
		} else {
			sb.WriteString(scrollbarTrackStyle.Render("│"))
		}
		if i < h-1 {
			sb.WriteString("\n")
		}
	}
	return title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, d.viewport.View(), sb.String())
}
