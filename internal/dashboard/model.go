package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/internal/view"
	"github.com/ldi/taskdeck/pkg/models"
)

type Tab int

const (
	TabTasks Tab = iota
	TabBatches
	TabFiles
)

var tabNames = []string{"Tasks", "Batches", "Files"}

func (t Tab) String() string { return tabNames[t] }

const noticeTTL = 3 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Italic(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("208")).
			Padding(0, 1)

	noticeStyles = map[actions.Level]lipgloss.Style{
		actions.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		actions.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		actions.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

type notice struct {
	id    int
	text  string
	level actions.Level
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	coord *Coordinator

	active Tab

	tasks view.TaskList

	allBatches []*models.Batch
	batchErr   error
	filter     batches.Filter
	batchList  view.BatchList

	files view.FileList

	selected [3]int
	offset   [3]int

	form    *form
	dialogs []ConfirmRequestMsg
	drawer  *view.Drawer
	notice  *notice
	nextID  int

	width    int
	height   int
	ready    bool
	quitting bool
}

func NewModel(coord *Coordinator) *Model {
	return &Model{
		coord:  coord,
		active: TabTasks,
		drawer: view.NewDrawer(80, 20),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.pollMessages(),
		m.coord.RefreshTasks(),
	)
}

func (m *Model) pollMessages() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.coord.Messages():
			return msg
		case <-m.coord.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.drawer.SetSize(m.width, m.bodyHeight())

	case PollMsg:
		cmds = append(cmds, m.coord.RefreshTasks(), m.pollMessages())

	case ConfirmRequestMsg:
		m.dialogs = append(m.dialogs, msg)
		cmds = append(cmds, m.pollMessages())

	case TasksLoadedMsg:
		if m.coord.Accept(ResourceTasks, msg.Seq) {
			m.tasks = m.coord.Reconciler().Tasks(msg.Tasks, msg.Err)
			m.clampSelection(TabTasks)
		}

	case BatchesLoadedMsg:
		if m.coord.Accept(ResourceBatches, msg.Seq) {
			m.allBatches = msg.Batches
			m.batchErr = msg.Err
			m.rebuildBatches()
		}

	case FilesLoadedMsg:
		if m.coord.Accept(ResourceFiles, msg.Seq) {
			m.files = m.coord.Reconciler().Files(msg.Files, msg.Err)
			m.clampSelection(TabFiles)
		}

	case TaskCreatedMsg:
		cmds = append(cmds, m.finishSubmit(msg.Err, "Task created"))

	case TasksUploadedMsg:
		cmds = append(cmds, m.finishSubmit(msg.Err, fmt.Sprintf("Uploaded %d task(s)", len(msg.Tasks))))

	case ActionDoneMsg:
		cmds = append(cmds, m.finishAction(msg))

	case noticeExpiredMsg:
		if m.notice != nil && m.notice.id == msg.id {
			m.notice = nil
		}
	}

	if m.drawer.IsOpen() {
		if cmd := m.drawer.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}

	if len(m.dialogs) > 0 {
		switch key {
		case "y", "Y", "enter":
			m.answer(true)
		case "n", "N", "esc":
			m.answer(false)
		}
		return nil
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	if m.drawer.IsOpen() {
		switch key {
		case "esc", "q":
			m.drawer.Close()
			return nil
		}
		return m.drawer.Update(msg)
	}

	switch key {
	case "q":
		return m.quit()
	case "tab", "right", "l":
		return m.activate((m.active + 1) % 3)
	case "shift+tab", "left", "h":
		return m.activate((m.active + 2) % 3)
	case "1":
		return m.activate(TabTasks)
	case "2":
		return m.activate(TabBatches)
	case "3":
		return m.activate(TabFiles)
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "R":
		return m.reload()
	case "n":
		m.form = newForm(formCreate, "New task", []string{"Content", "System prompt (optional)"}, nil, nil)
	case "u":
		m.form = newForm(formUpload, "Upload task files", []string{"Files (comma separated paths)", "System prompt"},
			nil, []string{"", client.DefaultSystemPrompt})
	case "f":
		if m.active == TabBatches {
			m.form = newForm(formFilter, "Filter batches", []string{"Start date (YYYY-MM-DD)", "End date (YYYY-MM-DD)", "Status"},
				[]string{batches.FormatDate(m.filter.Start), batches.FormatDate(m.filter.End), m.filter.Status}, nil)
		}
	default:
		if a, id, ok := m.rowAction(key); ok {
			return m.coord.Dispatch(a, id)
		}
	}
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.form = nil
		return nil
	case "tab", "down":
		m.form.next()
		return nil
	case "shift+tab", "up":
		m.form.prev()
		return nil
	case "enter":
		if !m.form.onLast() {
			m.form.next()
			return nil
		}
		return m.submitForm()
	}
	return m.form.update(msg)
}

func (m *Model) submitForm() tea.Cmd {
	f := m.form
	f.err = ""
	switch f.kind {
	case formCreate:
		return m.coord.Create(f.value(0), f.value(1))
	case formUpload:
		return m.coord.Upload(f.value(0), f.value(1))
	case formFilter:
		filter, err := batches.ParseFilter(f.value(0), f.value(1), f.value(2))
		if err != nil {
			f.err = err.Error()
			return nil
		}
		m.filter = filter
		m.form = nil
		m.rebuildBatches()
	}
	return nil
}

// finishSubmit handles the result of a create or upload.
func (m *Model) finishSubmit(err error, success string) tea.Cmd {
	if err != nil {
		var verr *client.ValidationError
		if errors.As(err, &verr) && m.form != nil {
			m.form.err = verr.Error()
			return nil
		}
		return m.setNotice(err.Error(), actions.LevelError)
	}
	m.form = nil
	return tea.Batch(m.setNotice(success, actions.LevelSuccess), m.coord.RefreshTasks())
}

func (m *Model) finishAction(msg ActionDoneMsg) tea.Cmd {
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return nil
		}
		return m.setNotice(msg.Err.Error(), actions.LevelError)
	}
	out := msg.Outcome
	if out.Declined {
		return nil
	}

	var cmds []tea.Cmd
	if out.Detail != "" {
		m.drawer.SetSize(m.width, m.bodyHeight())
		if out.Markdown {
			m.drawer.ShowMarkdown(out.Message, out.Detail)
		} else {
			m.drawer.Show(out.Message, out.Detail)
		}
	} else if out.Message != "" {
		cmds = append(cmds, m.setNotice(out.Message, out.Level))
	}

	switch out.Refresh {
	case actions.RefreshTasks:
		cmds = append(cmds, m.coord.RefreshTasks())
	case actions.RefreshBatches:
		cmds = append(cmds, m.coord.LoadBatches())
	case actions.RefreshFiles:
		cmds = append(cmds, m.coord.LoadFiles())
	}
	return tea.Batch(cmds...)
}

func (m *Model) setNotice(text string, level actions.Level) tea.Cmd {
	m.nextID++
	id := m.nextID
	m.notice = &notice{id: id, text: text, level: level}
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (m *Model) answer(ok bool) {
	req := m.dialogs[0]
	m.dialogs = m.dialogs[1:]
	req.Reply <- ok
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.coord.Stop()
	return tea.Quit
}

// activate switches tabs and loads the target's data. The batch filter is
// reset on every activation.
func (m *Model) activate(t Tab) tea.Cmd {
	m.active = t
	m.drawer.Close()
	switch t {
	case TabBatches:
		m.filter = batches.DefaultFilter(m.coord.now(), m.coord.windowDays)
		return m.coord.LoadBatches()
	case TabFiles:
		return m.coord.LoadFiles()
	default:
		return m.coord.RefreshTasks()
	}
}

func (m *Model) reload() tea.Cmd {
	switch m.active {
	case TabBatches:
		return m.coord.LoadBatches()
	case TabFiles:
		return m.coord.LoadFiles()
	default:
		return m.coord.RefreshTasks()
	}
}

func (m *Model) rebuildBatches() {
	m.batchList = m.coord.Reconciler().Batches(m.allBatches, m.filter, m.batchErr)
	m.clampSelection(TabBatches)
}

func (m *Model) rowCount(t Tab) int {
	switch t {
	case TabBatches:
		return len(m.batchList.Rows)
	case TabFiles:
		return len(m.files.Rows)
	default:
		return len(m.tasks.Rows)
	}
}

func (m *Model) moveSelection(delta int) {
	n := m.rowCount(m.active)
	if n == 0 {
		return
	}
	m.selected[m.active] = (m.selected[m.active] + delta + n) % n
}

func (m *Model) clampSelection(t Tab) {
	n := m.rowCount(t)
	if m.selected[t] >= n {
		m.selected[t] = max(n-1, 0)
	}
}

var rowKeys = map[Tab]map[string]actions.Action{
	TabTasks: {
		"b": actions.CheckBatch,
		"r": actions.GetResult,
		"c": actions.Cancel,
		"d": actions.Delete,
	},
	TabBatches: {
		"enter": actions.ViewBatch,
		"d":     actions.DeleteBatch,
		"o":     actions.DownloadFile,
	},
	TabFiles: {
		"o": actions.DownloadFile,
		"d": actions.DeleteFile,
	},
}

// rowAction resolves key against the affordances of the selected row. Keys
// for actions the row does not offer do nothing.
func (m *Model) rowAction(key string) (actions.Action, string, bool) {
	a, ok := rowKeys[m.active][key]
	if !ok {
		return "", "", false
	}
	i := m.selected[m.active]
	switch m.active {
	case TabTasks:
		if i >= len(m.tasks.Rows) {
			return "", "", false
		}
		row := m.tasks.Rows[i]
		if !offers(row.Actions, a) {
			return "", "", false
		}
		if a == actions.CheckBatch {
			return a, row.BatchID, true
		}
		return a, row.ID, true
	case TabBatches:
		if i >= len(m.batchList.Rows) {
			return "", "", false
		}
		row := m.batchList.Rows[i]
		if !offers(row.Actions, a) {
			return "", "", false
		}
		if a == actions.DownloadFile {
			if row.OutputFileID != "" {
				return a, row.OutputFileID, true
			}
			return a, row.ErrorFileID, true
		}
		return a, row.ID, true
	case TabFiles:
		if i >= len(m.files.Rows) {
			return "", "", false
		}
		row := m.files.Rows[i]
		if !offers(row.Actions, a) {
			return "", "", false
		}
		return a, row.ID, true
	}
	return "", "", false
}

func offers(list []actions.Action, a actions.Action) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
