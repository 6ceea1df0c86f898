// Package view turns task, batch and file collections into display trees
// and renders them with lipgloss. Reconciliation is pure; only the
// renderers know about the terminal.
package view

import (
	"errors"
	"strings"
	"time"

	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/internal/logging"
	"github.com/ldi/taskdeck/internal/taxonomy"
	"github.com/ldi/taskdeck/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	ContentLimit = 20
	PromptLimit  = 100
)

// State is the overall condition of a rendered list.
type State int

const (
	// StateLoading is the zero value: nothing has been fetched yet.
	StateLoading State = iota
	StateReady
	StateEmpty
	StateLoadFailed
)

// Registry reports which actions have a handler. Affordances without one
// are never offered.
type Registry interface {
	Has(a actions.Action) bool
}

type TaskRow struct {
	ID           string
	Content      string
	SystemPrompt string
	BatchID      string
	HasResult    bool
	ErrorMessage string
	Status       taxonomy.Info
	Actions      []actions.Action
}

type TaskList struct {
	State       State
	Message     string
	ResultLabel string
	Rows        []TaskRow
}

type BatchRow struct {
	ID               string
	Status           taxonomy.Info
	Created          time.Time
	CompletionWindow string
	Counts           models.RequestCounts
	CompletedPct     float64
	FailedPct        float64
	InputFileID      string
	OutputFileID     string
	ErrorFileID      string
	Actions          []actions.Action
}

type BatchList struct {
	State   State
	Message string
	Filter  batches.Filter
	Stats   []batches.StatusCount
	Total   int
	Rows    []BatchRow
}

type FileRow struct {
	ID            string
	Filename      string
	Bytes         int64
	Purpose       string
	Created       time.Time
	Status        string
	StatusDetails string
	Actions       []actions.Action
}

type FileList struct {
	State   State
	Message string
	Rows    []FileRow
}

// Reconciler builds display trees in one locale.
type Reconciler struct {
	tax      *taxonomy.Taxonomy
	registry Registry
	log      *logrus.Entry
}

// NewReconciler returns a reconciler. A nil registry offers every
// affordance the taxonomy admits.
func NewReconciler(tax *taxonomy.Taxonomy, registry Registry, logger logrus.FieldLogger) *Reconciler {
	if tax == nil {
		tax = taxonomy.Default
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reconciler{tax: tax, registry: registry, log: logging.Component(logger, "view")}
}

func (r *Reconciler) offer(list []actions.Action, a actions.Action) []actions.Action {
	if r.registry != nil && !r.registry.Has(a) {
		return list
	}
	return append(list, a)
}

// Tasks reconciles the result of a task list fetch. A nil list or a
// malformed body is a shape error and renders the load-failed state; any
// other fetch error renders the empty state.
func (r *Reconciler) Tasks(tasks []*models.Task, err error) TaskList {
	if err != nil {
		var malformed *client.MalformedResponse
		if errors.As(err, &malformed) {
			r.log.WithError(err).Error("task list has an unexpected shape")
			return TaskList{State: StateLoadFailed, Message: r.tax.Text("tasks.load_failed")}
		}
		r.log.WithError(err).Warn("failed to load tasks")
		return TaskList{State: StateEmpty, Message: r.tax.Text("tasks.empty")}
	}
	if tasks == nil {
		r.log.Error("task list is missing")
		return TaskList{State: StateLoadFailed, Message: r.tax.Text("tasks.load_failed")}
	}

	rows := make([]TaskRow, 0, len(tasks))
	for i, t := range tasks {
		if t == nil {
			r.log.WithField("index", i).Debug("skipping empty task entry")
			continue
		}
		rows = append(rows, r.taskRow(t))
	}
	if len(rows) == 0 {
		return TaskList{State: StateEmpty, Message: r.tax.Text("tasks.empty")}
	}
	return TaskList{State: StateReady, ResultLabel: r.tax.Text("result_available"), Rows: rows}
}

func (r *Reconciler) taskRow(t *models.Task) TaskRow {
	info := r.tax.Describe(string(t.Status))
	row := TaskRow{
		ID:           t.ID,
		Content:      Truncate(t.Content, ContentLimit),
		SystemPrompt: Truncate(models.Deref(t.SystemPrompt), PromptLimit),
		BatchID:      models.Deref(t.BatchID),
		HasResult:    t.HasResult(),
		ErrorMessage: models.Deref(t.ErrorMessage),
		Status:       info,
	}
	if strings.TrimSpace(t.Content) == "" {
		row.Content = r.tax.Text("no_content")
	}

	var list []actions.Action
	if row.BatchID != "" {
		list = r.offer(list, actions.CheckBatch)
	}
	if info.Status == models.TaskStatusCompleted {
		list = r.offer(list, actions.GetResult)
	}
	if info.Cancellable {
		list = r.offer(list, actions.Cancel)
	}
	if info.Deletable {
		list = r.offer(list, actions.Delete)
	}
	row.Actions = list
	return row
}

// Batches reconciles the unfiltered batch collection under filter. Stats
// describe the filtered set.
func (r *Reconciler) Batches(all []*models.Batch, filter batches.Filter, err error) BatchList {
	list := BatchList{Filter: filter}
	if err != nil {
		r.log.WithError(err).Warn("failed to load batches")
		list.State = StateEmpty
		list.Message = r.tax.Text("batches.empty")
		return list
	}

	filtered := batches.ApplyFilter(all, filter)
	list.Stats = batches.ComputeStatusStats(filtered, r.tax)
	for _, b := range filtered {
		if b == nil {
			continue
		}
		list.Rows = append(list.Rows, r.batchRow(b))
	}
	list.Total = len(list.Rows)
	if list.Total == 0 {
		list.State = StateEmpty
		list.Message = r.tax.Text("batches.empty")
		return list
	}
	list.State = StateReady
	return list
}

func (r *Reconciler) batchRow(b *models.Batch) BatchRow {
	row := BatchRow{
		ID:               b.ID,
		Status:           r.tax.Describe(b.Status),
		Created:          b.Created(),
		CompletionWindow: b.CompletionWindow,
		InputFileID:      models.Deref(b.InputFileID),
		OutputFileID:     models.Deref(b.OutputFileID),
		ErrorFileID:      models.Deref(b.ErrorFileID),
	}
	if b.RequestCounts != nil {
		row.Counts = *b.RequestCounts
	}
	row.CompletedPct, row.FailedPct = batches.Progress(b.RequestCounts)

	var list []actions.Action
	list = r.offer(list, actions.ViewBatch)
	list = r.offer(list, actions.DeleteBatch)
	if row.OutputFileID != "" || row.ErrorFileID != "" {
		list = r.offer(list, actions.DownloadFile)
	}
	row.Actions = list
	return row
}

// Files reconciles the file collection.
func (r *Reconciler) Files(files []*models.File, err error) FileList {
	if err != nil {
		r.log.WithError(err).Warn("failed to load files")
		return FileList{State: StateEmpty, Message: r.tax.Text("files.empty")}
	}
	var rows []FileRow
	for _, f := range files {
		if f == nil {
			continue
		}
		row := FileRow{
			ID:            f.ID,
			Filename:      f.Filename,
			Bytes:         f.Bytes,
			Purpose:       f.Purpose,
			Created:       f.Created(),
			Status:        f.Status,
			StatusDetails: models.Deref(f.StatusDetails),
		}
		row.Actions = r.offer(row.Actions, actions.DownloadFile)
		row.Actions = r.offer(row.Actions, actions.DeleteFile)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return FileList{State: StateEmpty, Message: r.tax.Text("files.empty")}
	}
	return FileList{State: StateReady, Rows: rows}
}

// Truncate shortens s to limit runes and appends "..." when it was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
