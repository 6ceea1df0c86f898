// Package dashboard is the interactive terminal view. The Coordinator owns
// the poller, request sequencing and the busy controls; Model is the
// bubbletea program that drives it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/internal/logging"
	"github.com/ldi/taskdeck/internal/taxonomy"
	"github.com/ldi/taskdeck/internal/view"
	"github.com/ldi/taskdeck/pkg/models"
	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 30 * time.Second

const (
	controlCreate = "create"
	controlUpload = "upload"
)

// Backend is the API surface the dashboard reads and mutates.
type Backend interface {
	actions.Backend
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, content, systemPrompt string) (*models.Task, error)
	UploadTaskFiles(ctx context.Context, files []client.Upload, systemPrompt string) ([]*models.Task, error)
	ListBatches(ctx context.Context) ([]*models.Batch, error)
	ListFiles(ctx context.Context) ([]*models.File, error)
}

type Options struct {
	PollInterval time.Duration
	WindowDays   int
	Taxonomy     *taxonomy.Taxonomy
	Logger       logrus.FieldLogger
	// Now is the clock used for the default batch filter.
	Now func() time.Time
}

type Coordinator struct {
	backend    Backend
	table      *actions.Table
	reconciler *view.Reconciler
	tax        *taxonomy.Taxonomy
	seq        *Sequencer
	controls   *Controls
	poller     *Poller
	windowDays int
	now        func() time.Time
	log        *logrus.Entry

	msgChan  chan tea.Msg
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewCoordinator(backend Backend, opts Options) *Coordinator {
	if opts.Taxonomy == nil {
		opts.Taxonomy = taxonomy.Default
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		backend:    backend,
		tax:        opts.Taxonomy,
		seq:        NewSequencer(),
		controls:   NewControls(),
		windowDays: opts.WindowDays,
		now:        opts.Now,
		log:        logging.Component(opts.Logger, "dashboard"),
		msgChan:    make(chan tea.Msg, 100),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.table = actions.Standard(backend, c, opts.Taxonomy)
	c.reconciler = view.NewReconciler(opts.Taxonomy, c.table, opts.Logger)
	c.poller = NewPoller(opts.PollInterval, func() {
		c.sendMsg(PollMsg{At: time.Now()})
	})
	return c
}

// Start begins periodic task refreshes.
func (c *Coordinator) Start() {
	c.poller.Start(c.ctx)
	c.log.WithField("interval", c.poller.Interval()).Info("polling started")
}

// Stop halts the poller and unblocks every pending confirmation.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.poller.Stop()
		c.cancel()
		close(c.done)
		c.log.Info("polling stopped")
	})
}

func (c *Coordinator) Messages() <-chan tea.Msg { return c.msgChan }

// Done is closed by Stop.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

func (c *Coordinator) Poller() *Poller { return c.poller }

func (c *Coordinator) Controls() *Controls { return c.controls }

func (c *Coordinator) Reconciler() *view.Reconciler { return c.reconciler }

func (c *Coordinator) sendMsg(msg tea.Msg) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	case <-time.After(100 * time.Millisecond):
		c.log.WithField("msg", fmt.Sprintf("%T", msg)).Debug("dropped message")
	}
}

// Confirm shows a dialog and blocks until the user answers. There is no
// timeout; only Stop or ctx ends the wait early.
func (c *Coordinator) Confirm(ctx context.Context, prompt string) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case c.msgChan <- ConfirmRequestMsg{Prompt: prompt, Reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.done:
		return false, context.Canceled
	}

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.done:
		return false, context.Canceled
	}
}

// RefreshTasks fetches the task list.
func (c *Coordinator) RefreshTasks() tea.Cmd {
	seq := c.seq.Begin(ResourceTasks)
	ctx := c.ctx
	return func() tea.Msg {
		tasks, err := c.backend.ListTasks(ctx)
		return TasksLoadedMsg{Seq: seq, Tasks: tasks, Err: err}
	}
}

func (c *Coordinator) LoadBatches() tea.Cmd {
	seq := c.seq.Begin(ResourceBatches)
	ctx := c.ctx
	return func() tea.Msg {
		list, err := c.backend.ListBatches(ctx)
		return BatchesLoadedMsg{Seq: seq, Batches: list, Err: err}
	}
}

func (c *Coordinator) LoadFiles() tea.Cmd {
	seq := c.seq.Begin(ResourceFiles)
	ctx := c.ctx
	return func() tea.Msg {
		list, err := c.backend.ListFiles(ctx)
		return FilesLoadedMsg{Seq: seq, Files: list, Err: err}
	}
}

// Accept reports whether a loaded message is the newest for its resource.
func (c *Coordinator) Accept(r Resource, seq uint64) bool {
	if c.seq.Accept(r, seq) {
		return true
	}
	c.log.WithFields(logrus.Fields{"resource": r, "seq": seq}).Debug("discarding stale response")
	return false
}

// Create submits one task. It returns nil while a create is in flight.
func (c *Coordinator) Create(content, systemPrompt string) tea.Cmd {
	if !c.controls.Acquire(controlCreate) {
		return nil
	}
	ctx := c.ctx
	return func() tea.Msg {
		defer c.controls.Release(controlCreate)
		task, err := c.backend.CreateTask(ctx, content, systemPrompt)
		if err != nil {
			c.log.WithError(err).Warn("create task failed")
		}
		return TaskCreatedMsg{Task: task, Err: err}
	}
}

// Upload submits the comma separated paths as one task each.
func (c *Coordinator) Upload(paths, systemPrompt string) tea.Cmd {
	if !c.controls.Acquire(controlUpload) {
		return nil
	}
	ctx := c.ctx
	return func() tea.Msg {
		defer c.controls.Release(controlUpload)
		files, err := uploadsFromPaths(paths)
		if err == nil {
			var tasks []*models.Task
			tasks, err = c.backend.UploadTaskFiles(ctx, files, systemPrompt)
			if err == nil {
				return TasksUploadedMsg{Tasks: tasks}
			}
		}
		c.log.WithError(err).Warn("upload failed")
		return TasksUploadedMsg{Err: err}
	}
}

func uploadsFromPaths(paths string) ([]client.Upload, error) {
	var files []client.Upload
	for _, p := range strings.Split(paths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := client.UploadFromPath(p)
		if err != nil {
			return nil, err
		}
		files = append(files, u)
	}
	return files, nil
}

// ControlKey names the control of one row action.
func ControlKey(a actions.Action, id string) string {
	return string(a) + ":" + id
}

// Dispatch runs a row action. It returns nil while the same control is busy.
func (c *Coordinator) Dispatch(a actions.Action, id string) tea.Cmd {
	key := ControlKey(a, id)
	if !c.controls.Acquire(key) {
		return nil
	}
	ctx := c.ctx
	return func() tea.Msg {
		defer c.controls.Release(key)
		out, err := c.table.Dispatch(ctx, a, id)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.log.WithError(err).WithFields(logrus.Fields{"action": a, "id": id}).Warn("action failed")
		}
		return ActionDoneMsg{Outcome: out, Err: err}
	}
}
