// Package ui holds the launcher shown when taskdeck runs without arguments.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	logoStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("12")).Bold(true)
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const logo = `
 _            _       _           _    
| |_ __ _ ___| | ____| | ___  ___| | __
| __/ _' / __| |/ / _' |/ _ \/ __| |/ /
| || (_| \__ \   < (_| |  __/ (__|   < 
 \__\__,_|___/_|\_\__,_|\___|\___|_|\_\
`

// MenuItem is one launcher entry; Args is the command line it stands for.
type MenuItem struct {
	Label string
	Hint  string
	Args  []string
}

// DefaultItems are the entries offered by RunMenu.
var DefaultItems = []MenuItem{
	{Label: "dashboard", Hint: "live view of tasks, batches and files", Args: []string{"dash"}},
	{Label: "tasks", Hint: "print the task list", Args: []string{"tasks", "list"}},
	{Label: "batches", Hint: "print batches from the last window", Args: []string{"batches", "list"}},
	{Label: "batch stats", Hint: "count batches per status", Args: []string{"batches", "stats"}},
	{Label: "files", Hint: "print batch files", Args: []string{"files", "list"}},
}

type MenuModel struct {
	items    []MenuItem
	cursor   int
	selected []string
	quitting bool
}

func NewMenuModel(items []MenuItem) MenuModel {
	if len(items) == 0 {
		items = DefaultItems
	}
	return MenuModel{items: items}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case "enter":
			m.selected = m.items[m.cursor].Args
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(logoStyle.Render(logo))
	s.WriteString("\n\n")

	for i, item := range m.items {
		line := fmt.Sprintf("%-12s %s", item.Label, hintStyle.Render(item.Hint))
		if m.cursor == i {
			s.WriteString(selectedItemStyle.Render("> " + line))
		} else {
			s.WriteString(itemStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n(use arrow keys or j/k to navigate, enter to select, q to quit)\n")

	return s.String()
}

// Selected returns the chosen command line, or nil when the menu was left.
func (m MenuModel) Selected() []string {
	return m.selected
}

func RunMenu() ([]string, error) {
	p := tea.NewProgram(NewMenuModel(nil))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(MenuModel).Selected(), nil
}
