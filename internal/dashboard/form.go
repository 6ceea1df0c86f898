package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formCreate formKind = iota
	formUpload
	formFilter
)

var (
	formTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	formLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	formErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	formBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// form is a small stack of text inputs submitted with enter on the last one.
type form struct {
	kind   formKind
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
}

func newForm(kind formKind, title string, labels, values, placeholders []string) *form {
	f := &form{kind: kind, title: title, labels: labels}
	for i := range labels {
		in := textinput.New()
		in.Prompt = "> "
		in.CharLimit = 0
		if i < len(placeholders) {
			in.Placeholder = placeholders[i]
		}
		if i < len(values) {
			in.SetValue(values[i])
		}
		f.inputs = append(f.inputs, in)
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	f.focus = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *form) next() {
	f.setFocus((f.focus + 1) % len(f.inputs))
}

func (f *form) prev() {
	f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs))
}

func (f *form) onLast() bool { return f.focus == len(f.inputs)-1 }

func (f *form) value(i int) string {
	if i >= len(f.inputs) {
		return ""
	}
	return f.inputs[i].Value()
}

// setValue replaces the text of field i.
func (f *form) setValue(i int, v string) {
	if i < len(f.inputs) {
		f.inputs[i].SetValue(v)
	}
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view(width int, busy bool) string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(f.title))
	b.WriteString("\n")
	for i, in := range f.inputs {
		b.WriteString(formLabelStyle.Render(f.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString(formErrorStyle.Render(f.err))
		b.WriteString("\n")
	}
	if busy {
		b.WriteString(formLabelStyle.Render("Submitting..."))
	} else {
		b.WriteString(formLabelStyle.Render("tab next field • enter submit • esc cancel"))
	}
	style := formBoxStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(b.String())
}
