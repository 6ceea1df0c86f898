package dashboard

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/taskdeck/internal/view"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading dashboard..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	avail := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if avail < 1 {
		avail = 1
	}

	var body string
	switch {
	case m.form != nil:
		body = m.form.view(m.width, m.coord.Controls().Len() > 0)
	case m.drawer.IsOpen():
		body = m.drawer.View()
	default:
		body = m.renderList(avail)
	}
	body = clip(body, avail)

	return header + "\n" + body + "\n" + footer
}

func (m *Model) bodyHeight() int {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) renderHeader() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := name
		if Tab(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render("taskdeck"), "  ", strings.Join(tabs, " "))
	if n := m.coord.Controls().Len(); n > 0 {
		line += "  " + busyStyle.Render("working...")
	}
	return line
}

func (m *Model) renderFooter() string {
	var parts []string
	if len(m.dialogs) > 0 {
		parts = append(parts, dialogStyle.Render(m.dialogs[0].Prompt+"  [y/N]"))
	}
	if m.notice != nil {
		parts = append(parts, noticeStyles[m.notice.level].Render(m.notice.text))
	}
	parts = append(parts, helpStyle.Render(m.helpText()))
	return strings.Join(parts, "\n")
}

func (m *Model) helpText() string {
	switch {
	case len(m.dialogs) > 0:
		return "y confirm • n/esc decline"
	case m.form != nil:
		return "esc cancel"
	case m.drawer.IsOpen():
		return "j/k scroll • esc close"
	}
	base := "q quit • tab/1-3 switch • j/k move • R reload"
	switch m.active {
	case TabTasks:
		return base + " • n new • u upload"
	case TabBatches:
		return base + " • f filter"
	}
	return base
}

// renderList draws the active tab, scrolled so the selected row is visible.
func (m *Model) renderList(avail int) string {
	t := m.active
	sel := m.selected[t]
	var prefix string
	var blocks []string

	switch t {
	case TabTasks:
		if m.tasks.State != view.StateReady {
			return view.Placeholder(m.tasks.State, m.placeholder(m.tasks.Message))
		}
		for i, r := range m.tasks.Rows {
			blocks = append(blocks, view.TaskBlock(r, m.tasks.ResultLabel, i == sel, m.width))
		}
	case TabBatches:
		prefix = view.BatchHeader(m.batchList)
		if m.batchList.State != view.StateReady {
			return prefix + "\n" + view.Placeholder(m.batchList.State, m.placeholder(m.batchList.Message))
		}
		for i, r := range m.batchList.Rows {
			blocks = append(blocks, view.BatchBlock(r, i == sel, m.width))
		}
	case TabFiles:
		if m.files.State != view.StateReady {
			return view.Placeholder(m.files.State, m.placeholder(m.files.Message))
		}
		for i, r := range m.files.Rows {
			blocks = append(blocks, view.FileBlock(r, i == sel, m.width))
		}
	}

	if prefix != "" {
		avail -= lipgloss.Height(prefix)
	}
	m.offset[t] = scrollOffset(blocks, sel, m.offset[t], avail)
	out := strings.Join(blocks[m.offset[t]:], "\n")
	if prefix != "" {
		out = prefix + "\n" + out
	}
	return out
}

// placeholder covers lists that have not been loaded yet.
func (m *Model) placeholder(msg string) string {
	if msg == "" {
		return "Loading..."
	}
	return msg
}

// scrollOffset returns the first block to draw so that block sel fits in
// avail lines.
func scrollOffset(blocks []string, sel, offset, avail int) int {
	if len(blocks) == 0 {
		return 0
	}
	if sel >= len(blocks) {
		sel = len(blocks) - 1
	}
	if offset > sel {
		offset = sel
	}
	for offset < sel {
		h := 0
		for _, b := range blocks[offset : sel+1] {
			h += lipgloss.Height(b)
		}
		if h <= avail {
			break
		}
		offset++
	}
	return offset
}

func clip(s string, lines int) string {
	parts := strings.Split(s, "\n")
	if len(parts) <= lines {
		return s
	}
	return strings.Join(parts[:lines], "\n")
}

// Run starts the coordinator and blocks until the program exits or ctx is
// done.
func Run(ctx context.Context, coord *Coordinator) error {
	m := NewModel(coord)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	coord.Start()
	defer coord.Stop()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
