package dashboard

import (
	"time"

	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/pkg/models"
)

// PollMsg is sent by the poller on every tick.
type PollMsg struct {
	At time.Time
}

type TasksLoadedMsg struct {
	Seq   uint64
	Tasks []*models.Task
	Err   error
}

type BatchesLoadedMsg struct {
	Seq     uint64
	Batches []*models.Batch
	Err     error
}

type FilesLoadedMsg struct {
	Seq   uint64
	Files []*models.File
	Err   error
}

type TaskCreatedMsg struct {
	Task *models.Task
	Err  error
}

type TasksUploadedMsg struct {
	Tasks []*models.Task
	Err   error
}

type ActionDoneMsg struct {
	Outcome actions.Outcome
	Err     error
}

// ConfirmRequestMsg asks the model to show a dialog. The answer goes to
// Reply exactly once.
type ConfirmRequestMsg struct {
	Prompt string
	Reply  chan<- bool
}

type noticeExpiredMsg struct {
	id int
}
