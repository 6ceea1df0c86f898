package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/internal/view"
	"github.com/ldi/taskdeck/pkg/models"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds its messages back into m. Commands that do not
// finish quickly, such as notice timers and the message pump, are skipped.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		out := make(chan tea.Msg, 1)
		go func() { out <- c() }()

		var msg tea.Msg
		select {
		case msg = <-out:
		case <-time.After(200 * time.Millisecond):
			continue
		}

		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func newTestModel(t *testing.T, b Backend) *Model {
	t.Helper()
	coord := newTestCoordinator(b)
	t.Cleanup(coord.Stop)
	m := NewModel(coord)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 80})
	return m
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, newMockBackend())
	if m.active != TabTasks {
		t.Errorf("expected tasks tab to be active initially, got %v", m.active)
	}
	if !m.ready {
		t.Errorf("expected model to be ready after WindowSizeMsg")
	}
	if !strings.Contains(m.View(), "Loading...") {
		t.Errorf("expected loading placeholder before the first fetch")
	}
}

// fakeService is a minimal in-memory task API.
type fakeService struct {
	mu    sync.Mutex
	tasks []map[string]any
}

func (s *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/task/create", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		task := map[string]any{"id": "task-1", "content": body["content"], "status": "validating"}
		s.tasks = append(s.tasks, task)
		s.mu.Unlock()
		json.NewEncoder(w).Encode(task)
	})
	mux.HandleFunc("GET /api/task/get", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(s.tasks)
	})
	return mux
}

func (s *fakeService) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t["status"] = status
	}
}

func TestCreateThenPollFlipsAffordances(t *testing.T) {
	svc := &fakeService{tasks: []map[string]any{}}
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	m := newTestModel(t, client.New(srv.URL))

	m.Update(key("n"))
	if m.form == nil {
		t.Fatalf("expected create form to open")
	}
	m.form.setValue(0, "hello")
	m.Update(key("enter"))
	_, cmd := m.Update(key("enter"))
	drain(t, m, cmd)

	if m.form != nil {
		t.Errorf("expected form to close after a successful create")
	}
	if len(m.tasks.Rows) != 1 {
		t.Fatalf("expected one task, got %d", len(m.tasks.Rows))
	}
	v := m.View()
	if !strings.Contains(v, "Validating") || !strings.Contains(v, "hello") {
		t.Errorf("expected validating task in view:\n%s", v)
	}
	if !strings.Contains(v, "c cancel") {
		t.Errorf("expected cancel affordance for a validating task")
	}
	if strings.Contains(v, "d delete") {
		t.Errorf("expected no delete affordance for a validating task")
	}

	svc.setStatus("completed")
	_, cmd = m.Update(PollMsg{At: time.Now()})
	drain(t, m, cmd)

	v = m.View()
	if !strings.Contains(v, "Completed") {
		t.Errorf("expected completed status after poll:\n%s", v)
	}
	if !strings.Contains(v, "d delete") {
		t.Errorf("expected delete affordance after completion")
	}
	if strings.Contains(v, "c cancel") {
		t.Errorf("expected cancel affordance to disappear after completion")
	}
}

func TestCreateValidationErrorStaysInline(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)

	m.Update(key("n"))
	m.Update(TaskCreatedMsg{Err: &client.ValidationError{Field: "content", Message: "task content is required"}})

	if m.form == nil {
		t.Fatalf("expected form to stay open")
	}
	if !strings.Contains(m.View(), "task content is required") {
		t.Errorf("expected inline validation message")
	}
}

func TestStaleTaskResponseDiscarded(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)

	older := m.coord.RefreshTasks()
	newer := m.coord.RefreshTasks()

	backend.setTasks(&models.Task{ID: "a", Content: "x", Status: models.TaskStatusCompleted}, &models.Task{ID: "b", Content: "y", Status: models.TaskStatusFailed})
	m.Update(newer())

	backend.setTasks(&models.Task{ID: "a", Content: "x", Status: models.TaskStatusValidating})
	m.Update(older())

	if len(m.tasks.Rows) != 2 {
		t.Fatalf("expected stale response to be discarded, got %d rows", len(m.tasks.Rows))
	}
	if m.tasks.Rows[0].Status.Status != models.TaskStatusCompleted {
		t.Errorf("expected newest snapshot to remain, got %s", m.tasks.Rows[0].Status.Status)
	}
}

func TestMalformedTaskListShowsFailure(t *testing.T) {
	m := newTestModel(t, newMockBackend())
	seq := m.coord.seq.Begin(ResourceTasks)
	m.Update(TasksLoadedMsg{Seq: seq, Err: &client.MalformedResponse{Method: "GET", Path: "/api/task/get"}})

	if m.tasks.State != view.StateLoadFailed {
		t.Errorf("expected load-failed state")
	}
	if !strings.Contains(m.View(), "Failed to load task list") {
		t.Errorf("expected visible failure message")
	}
}

func TestTabActivation(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	backend := newMockBackend()
	backend.batches = []*models.Batch{
		{ID: "batch-new", Status: "completed", CreatedAt: now.Add(-time.Hour).Unix()},
		{ID: "batch-old", Status: "failed", CreatedAt: now.AddDate(0, -3, 0).Unix()},
	}
	backend.files = []*models.File{{ID: "file-1", Filename: "out.jsonl", Bytes: 2048}}

	coord := NewCoordinator(backend, Options{PollInterval: time.Hour, Now: func() time.Time { return now }})
	t.Cleanup(coord.Stop)
	m := NewModel(coord)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 80})

	_, cmd := m.Update(key("2"))
	if m.active != TabBatches {
		t.Fatalf("expected batches tab to be active")
	}
	drain(t, m, cmd)

	v := m.View()
	if !strings.Contains(v, "batch-new") {
		t.Errorf("expected recent batch in default window")
	}
	if strings.Contains(v, "batch-old") {
		t.Errorf("expected old batch to be outside the default window")
	}
	if !strings.Contains(v, "Completed 1") {
		t.Errorf("expected status stats in header:\n%s", v)
	}

	_, cmd = m.Update(key("3"))
	drain(t, m, cmd)
	if m.active != TabFiles || !strings.Contains(m.View(), "out.jsonl") {
		t.Errorf("expected files tab with out.jsonl")
	}

	_, cmd = m.Update(key("1"))
	drain(t, m, cmd)
	if m.active != TabTasks {
		t.Errorf("expected tasks tab")
	}
}

func TestBatchFilterDoesNotRefetch(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	backend := newMockBackend()
	backend.batches = []*models.Batch{
		{ID: "b-done", Status: "completed", CreatedAt: now.Unix()},
		{ID: "b-failed", Status: "failed", CreatedAt: now.Unix()},
		{ID: "b-ancient", Status: "completed", CreatedAt: now.AddDate(-1, 0, 0).Unix()},
	}
	coord := NewCoordinator(backend, Options{PollInterval: time.Hour, Now: func() time.Time { return now }})
	t.Cleanup(coord.Stop)
	m := NewModel(coord)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 80})

	_, cmd := m.Update(key("2"))
	drain(t, m, cmd)
	fetches := backend.listBatches

	m.Update(key("f"))
	if m.form == nil || m.form.kind != formFilter {
		t.Fatalf("expected filter form")
	}
	m.form.setValue(0, "")
	m.form.setValue(1, "")
	m.form.setValue(2, "completed")
	m.Update(key("enter"))
	m.Update(key("enter"))
	m.Update(key("enter"))

	if m.form != nil {
		t.Fatalf("expected filter form to close, err=%q", m.form.err)
	}
	if backend.listBatches != fetches {
		t.Errorf("expected filtering without refetch")
	}
	ids := []string{}
	for _, r := range m.batchList.Rows {
		ids = append(ids, r.ID)
	}
	if strings.Join(ids, ",") != "b-done,b-ancient" {
		t.Errorf("expected completed batches from the full collection, got %v", ids)
	}

	m.Update(key("1"))
	_, cmd = m.Update(key("2"))
	drain(t, m, cmd)
	want := batches.DefaultFilter(now, 0)
	if batches.FormatDate(m.filter.Start) != batches.FormatDate(want.Start) || m.filter.Status != "" {
		t.Errorf("expected filter reset on activation, got %+v", m.filter)
	}
}

func TestBatchFilterInvalidDate(t *testing.T) {
	m := newTestModel(t, newMockBackend())
	m.Update(key("2"))
	m.Update(key("f"))
	m.form.setValue(0, "yesterday")
	m.Update(key("enter"))
	m.Update(key("enter"))
	m.Update(key("enter"))

	if m.form == nil {
		t.Fatalf("expected form to stay open on a bad date")
	}
	if !strings.Contains(m.form.err, "start date") {
		t.Errorf("expected start date error, got %q", m.form.err)
	}
}

func loadTasks(t *testing.T, m *Model, b *mockBackend, tasks ...*models.Task) {
	t.Helper()
	b.setTasks(tasks...)
	drain(t, m, m.coord.RefreshTasks())
}

func TestConfirmationSuspendsUntilAnswered(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)
	loadTasks(t, m, backend, &models.Task{ID: "t1", Content: "hi", Status: models.TaskStatusInProgress})

	for _, tc := range []struct {
		answer string
		expect bool
	}{{"n", false}, {"y", true}} {
		_, cmd := m.Update(key("c"))
		if cmd == nil {
			t.Fatalf("expected cancel to dispatch")
		}
		result := make(chan tea.Msg, 1)
		go func() { result <- cmd() }()

		var req tea.Msg
		select {
		case req = <-m.coord.Messages():
		case <-time.After(time.Second):
			t.Fatalf("expected a confirmation request")
		}
		m.Update(req)
		if !strings.Contains(m.View(), "Cancel this task?") {
			t.Errorf("expected dialog prompt in view")
		}

		select {
		case <-result:
			t.Fatalf("expected action to wait for the answer")
		case <-time.After(30 * time.Millisecond):
		}

		m.Update(key(tc.answer))
		var done ActionDoneMsg
		select {
		case msg := <-result:
			done = msg.(ActionDoneMsg)
		case <-time.After(time.Second):
			t.Fatalf("expected action to finish after the answer")
		}

		if done.Outcome.Declined == tc.expect {
			t.Errorf("answer %q: declined=%v", tc.answer, done.Outcome.Declined)
		}
		cancelled := false
		for _, c := range backend.Calls() {
			if c == "cancel t1" {
				cancelled = true
			}
		}
		if cancelled != tc.expect {
			t.Errorf("answer %q: cancel call made=%v", tc.answer, cancelled)
		}
	}
}

func TestActionKeysRespectAffordances(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)
	loadTasks(t, m, backend, &models.Task{ID: "t1", Content: "hi", Status: models.TaskStatusFailed})

	for _, k := range []string{"c", "d", "r", "b"} {
		if _, cmd := m.Update(key(k)); cmd != nil {
			t.Errorf("expected key %q to do nothing for a failed task", k)
		}
	}
}

func TestResultOpensDrawer(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)
	loadTasks(t, m, backend, &models.Task{ID: "t1", Content: "hi", Status: models.TaskStatusCompleted})

	_, cmd := m.Update(key("r"))
	drain(t, m, cmd)

	if !m.drawer.IsOpen() {
		t.Fatalf("expected result drawer to open")
	}
	if !strings.Contains(m.View(), "the answer is 42") {
		t.Errorf("expected result body in view")
	}

	m.Update(key("esc"))
	if m.drawer.IsOpen() {
		t.Errorf("expected esc to close the drawer")
	}
}

func TestWriteFailureShowsNoticeAndKeepsView(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)
	loadTasks(t, m, backend, &models.Task{ID: "t1", Content: "hi", Status: models.TaskStatusCompleted})

	m.Update(ActionDoneMsg{Err: &client.RequestFailed{Method: "DELETE", Path: "/api/task/t1", Status: 500, Message: "database locked"}})

	v := m.View()
	if !strings.Contains(v, "database locked") {
		t.Errorf("expected error notice")
	}
	if len(m.tasks.Rows) != 1 {
		t.Errorf("expected task list untouched")
	}

	m.Update(noticeExpiredMsg{id: m.notice.id})
	if m.notice != nil {
		t.Errorf("expected notice to expire")
	}
}

func TestSelectionWraps(t *testing.T) {
	backend := newMockBackend()
	m := newTestModel(t, backend)
	loadTasks(t, m, backend,
		&models.Task{ID: "a", Content: "1", Status: models.TaskStatusCompleted},
		&models.Task{ID: "b", Content: "2", Status: models.TaskStatusCompleted},
		&models.Task{ID: "c", Content: "3", Status: models.TaskStatusCompleted},
	)

	m.Update(key("k"))
	if m.selected[TabTasks] != 2 {
		t.Errorf("expected selection to wrap to last row, got %d", m.selected[TabTasks])
	}
	m.Update(key("j"))
	if m.selected[TabTasks] != 0 {
		t.Errorf("expected selection to wrap to first row, got %d", m.selected[TabTasks])
	}

	loadTasks(t, m, backend, &models.Task{ID: "a", Content: "1", Status: models.TaskStatusCompleted})
	m.selected[TabTasks] = 2
	m.clampSelection(TabTasks)
	if m.selected[TabTasks] != 0 {
		t.Errorf("expected selection clamped, got %d", m.selected[TabTasks])
	}
}

func TestQuitStopsCoordinator(t *testing.T) {
	m := newTestModel(t, newMockBackend())
	m.coord.Start()

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if m.coord.Poller().Running() {
		t.Errorf("expected poller to stop on quit")
	}
	if m.View() != "" {
		t.Errorf("expected empty view after quit")
	}
}

func TestScrollOffset(t *testing.T) {
	blocks := []string{"a\nb\nc", "d\ne\nf", "g\nh\ni", "j\nk\nl"}
	if got := scrollOffset(blocks, 0, 0, 6); got != 0 {
		t.Errorf("expected offset 0, got %d", got)
	}
	if got := scrollOffset(blocks, 3, 0, 6); got != 2 {
		t.Errorf("expected offset 2 to show rows 3 and 4, got %d", got)
	}
	if got := scrollOffset(blocks, 1, 3, 6); got != 1 {
		t.Errorf("expected offset to move back to selection, got %d", got)
	}
}
