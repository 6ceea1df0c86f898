package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/pkg/models"
)

type mockBackend struct {
	mu      sync.Mutex
	tasks   []*models.Task
	batches []*models.Batch
	files   []*models.File
	calls   []string
	err     error

	listBatches int
}

func newMockBackend() *mockBackend {
	return &mockBackend{tasks: []*models.Task{}, batches: []*models.Batch{}, files: []*models.File{}}
}

func (b *mockBackend) record(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	return b.err
}

func (b *mockBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *mockBackend) setTasks(tasks ...*models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = tasks
}

func (b *mockBackend) ListTasks(ctx context.Context) ([]*models.Task, error) {
	if err := b.record("list tasks"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks, nil
}

func (b *mockBackend) CreateTask(ctx context.Context, content, systemPrompt string) (*models.Task, error) {
	if err := b.record("create " + content); err != nil {
		return nil, err
	}
	return &models.Task{ID: "new", Content: content, Status: models.TaskStatusValidating}, nil
}

func (b *mockBackend) UploadTaskFiles(ctx context.Context, files []client.Upload, systemPrompt string) ([]*models.Task, error) {
	if err := b.record("upload"); err != nil {
		return nil, err
	}
	return []*models.Task{{ID: "up"}}, nil
}

func (b *mockBackend) ListBatches(ctx context.Context) ([]*models.Batch, error) {
	if err := b.record("list batches"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listBatches++
	return b.batches, nil
}

func (b *mockBackend) ListFiles(ctx context.Context) ([]*models.File, error) {
	if err := b.record("list files"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.files, nil
}

func (b *mockBackend) CancelTask(ctx context.Context, id string) (*models.Task, error) {
	if err := b.record("cancel " + id); err != nil {
		return nil, err
	}
	return &models.Task{ID: id, Status: models.TaskStatusCancelling}, nil
}

func (b *mockBackend) DeleteTask(ctx context.Context, id string) error {
	return b.record("delete " + id)
}

func (b *mockBackend) GetTaskResult(ctx context.Context, id string) (*models.TaskResult, error) {
	if err := b.record("result " + id); err != nil {
		return nil, err
	}
	return &models.TaskResult{Output: "the answer is 42"}, nil
}

func (b *mockBackend) GetBatchStatus(ctx context.Context, id string) (*models.Batch, error) {
	if err := b.record("batch status " + id); err != nil {
		return nil, err
	}
	return &models.Batch{ID: id, Status: "in_progress"}, nil
}

func (b *mockBackend) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	if err := b.record("batch " + id); err != nil {
		return nil, err
	}
	return &models.Batch{ID: id, Status: "completed"}, nil
}

func (b *mockBackend) DeleteBatch(ctx context.Context, id string) (*models.Batch, error) {
	if err := b.record("delete batch " + id); err != nil {
		return nil, err
	}
	return &models.Batch{ID: id}, nil
}

func (b *mockBackend) DownloadFile(ctx context.Context, id string) (string, error) {
	if err := b.record("download " + id); err != nil {
		return "", err
	}
	return "http://localhost/api/batch/files/" + id + "/download", nil
}

func (b *mockBackend) DeleteFile(ctx context.Context, id string) (*models.FileDeleted, error) {
	if err := b.record("delete file " + id); err != nil {
		return nil, err
	}
	return &models.FileDeleted{ID: id, Deleted: true}, nil
}

func newTestCoordinator(b Backend) *Coordinator {
	return NewCoordinator(b, Options{PollInterval: time.Hour})
}

func TestPollerTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(5*time.Millisecond, func() { ticks.Add(1) })

	p.Start(context.Background())
	if !p.Running() {
		t.Fatalf("expected poller to be running")
	}
	p.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for ticks.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 2 {
		t.Fatalf("expected at least 2 ticks, got %d", ticks.Load())
	}

	p.Stop()
	if p.Running() {
		t.Errorf("expected poller to be stopped")
	}
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if ticks.Load() != after {
		t.Errorf("expected no ticks after Stop, got %d more", ticks.Load()-after)
	}

	p.Stop()
}

func TestPollerDefaultInterval(t *testing.T) {
	p := NewPoller(0, func() {})
	if p.Interval() != DefaultPollInterval {
		t.Errorf("expected default interval %v, got %v", DefaultPollInterval, p.Interval())
	}
}

func TestCoordinatorStopsPollerOnTeardown(t *testing.T) {
	coord := newTestCoordinator(newMockBackend())
	coord.Start()
	if !coord.Poller().Running() {
		t.Fatalf("expected poller to run after Start")
	}

	coord.Stop()
	if coord.Poller().Running() {
		t.Errorf("expected poller to stop on teardown")
	}
	select {
	case <-coord.Done():
	default:
		t.Errorf("expected Done to be closed")
	}
	coord.Stop()
}

func TestCoordinatorPollSendsMessage(t *testing.T) {
	coord := NewCoordinator(newMockBackend(), Options{PollInterval: 5 * time.Millisecond})
	coord.Start()
	defer coord.Stop()

	select {
	case msg := <-coord.Messages():
		if _, ok := msg.(PollMsg); !ok {
			t.Errorf("expected PollMsg, got %T", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a poll message")
	}
}

func TestSequencerDiscardsStale(t *testing.T) {
	s := NewSequencer()
	first := s.Begin(ResourceTasks)
	second := s.Begin(ResourceTasks)
	other := s.Begin(ResourceFiles)

	if !s.Accept(ResourceTasks, second) {
		t.Errorf("expected newest response to be accepted")
	}
	if s.Accept(ResourceTasks, first) {
		t.Errorf("expected older response to be discarded")
	}
	if s.Accept(ResourceTasks, second) {
		t.Errorf("expected a response to be applied only once")
	}
	if !s.Accept(ResourceFiles, other) {
		t.Errorf("expected resources to be sequenced independently")
	}
}

func TestControlsReleasedAfterFailure(t *testing.T) {
	backend := newMockBackend()
	backend.err = errors.New("server down")
	coord := newTestCoordinator(backend)
	defer coord.Stop()

	cmd := coord.Create("hello", "")
	if cmd == nil {
		t.Fatalf("expected a create command")
	}
	if !coord.Controls().Busy(controlCreate) {
		t.Errorf("expected create control to be busy while in flight")
	}
	if again := coord.Create("hello", ""); again != nil {
		t.Errorf("expected a second create to be refused while busy")
	}

	msg, ok := cmd().(TaskCreatedMsg)
	if !ok || msg.Err == nil {
		t.Fatalf("expected a failed TaskCreatedMsg, got %#v", msg)
	}
	if coord.Controls().Busy(controlCreate) {
		t.Errorf("expected create control to be released after failure")
	}
}

func TestDispatchControlPerRow(t *testing.T) {
	coord := newTestCoordinator(newMockBackend())
	defer coord.Stop()

	first := coord.Dispatch("getResult", "t1")
	if first == nil {
		t.Fatalf("expected dispatch command")
	}
	if coord.Dispatch("getResult", "t1") != nil {
		t.Errorf("expected same control to be busy")
	}
	if coord.Dispatch("getResult", "t2") == nil {
		t.Errorf("expected a different row's control to be free")
	}

	msg := first().(ActionDoneMsg)
	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if coord.Controls().Busy(ControlKey("getResult", "t1")) {
		t.Errorf("expected control to be released")
	}
}

func TestUploadMissingFileReleasesControl(t *testing.T) {
	backend := newMockBackend()
	coord := newTestCoordinator(backend)
	defer coord.Stop()

	msg := coord.Upload("/definitely/not/here.txt", "")().(TasksUploadedMsg)
	if msg.Err == nil {
		t.Errorf("expected an error for a missing file")
	}
	if coord.Controls().Busy(controlUpload) {
		t.Errorf("expected upload control to be released")
	}
	for _, c := range backend.Calls() {
		if c == "upload" {
			t.Errorf("expected no upload call")
		}
	}
}

func TestConfirmUnblocksOnStop(t *testing.T) {
	coord := newTestCoordinator(newMockBackend())

	done := make(chan error, 1)
	go func() {
		_, err := coord.Confirm(context.Background(), "Delete?")
		done <- err
	}()

	select {
	case <-coord.Messages():
	case <-time.After(time.Second):
		t.Fatalf("expected a confirm request")
	}
	coord.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected Confirm to return after Stop")
	}
}
