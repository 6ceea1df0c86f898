package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ldi/taskdeck/pkg/models"
)

// Resources a handler can ask the caller to reload.
const (
	RefreshTasks   = "tasks"
	RefreshBatches = "batches"
	RefreshFiles   = "files"
)

// Backend is the subset of the API the row actions call.
type Backend interface {
	CancelTask(ctx context.Context, id string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	GetTaskResult(ctx context.Context, id string) (*models.TaskResult, error)
	GetBatchStatus(ctx context.Context, batchID string) (*models.Batch, error)
	GetBatch(ctx context.Context, id string) (*models.Batch, error)
	DeleteBatch(ctx context.Context, id string) (*models.Batch, error)
	DownloadFile(ctx context.Context, id string) (string, error)
	DeleteFile(ctx context.Context, id string) (*models.FileDeleted, error)
}

// Texts supplies localized prompts.
type Texts interface {
	Text(key string) string
}

// Standard registers every row action against b. Destructive actions ask c
// first.
func Standard(b Backend, c Confirmer, texts Texts) *Table {
	t := NewTable()

	t.Register(CheckBatch, func(ctx context.Context, id string) (Outcome, error) {
		batch, err := b.GetBatchStatus(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Message: fmt.Sprintf("Batch %s is %s", batch.ID, batch.Status),
			Level:   LevelInfo,
			Detail:  FormatBatch(batch),
		}, nil
	})

	t.Register(GetResult, func(ctx context.Context, id string) (Outcome, error) {
		res, err := b.GetTaskResult(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Message:  "Result for task " + id,
			Level:    LevelInfo,
			Detail:   FormatResult(res),
			Markdown: true,
		}, nil
	})

	t.Register(Cancel, Guarded(c, texts.Text("confirm.cancel"), func(ctx context.Context, id string) (Outcome, error) {
		if _, err := b.CancelTask(ctx, id); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Task cancelled", Level: LevelSuccess, Refresh: RefreshTasks}, nil
	}))

	t.Register(Delete, Guarded(c, texts.Text("confirm.delete"), func(ctx context.Context, id string) (Outcome, error) {
		if err := b.DeleteTask(ctx, id); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Task deleted", Level: LevelSuccess, Refresh: RefreshTasks}, nil
	}))

	t.Register(ViewBatch, func(ctx context.Context, id string) (Outcome, error) {
		batch, err := b.GetBatch(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Batch " + batch.ID, Level: LevelInfo, Detail: FormatBatch(batch)}, nil
	})

	t.Register(DeleteBatch, Guarded(c, texts.Text("confirm.del_batch"), func(ctx context.Context, id string) (Outcome, error) {
		if _, err := b.DeleteBatch(ctx, id); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Batch deleted", Level: LevelSuccess, Refresh: RefreshBatches}, nil
	}))

	t.Register(DownloadFile, func(ctx context.Context, id string) (Outcome, error) {
		u, err := b.DownloadFile(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Opened " + u, Level: LevelSuccess}, nil
	})

	t.Register(DeleteFile, Guarded(c, texts.Text("confirm.del_file"), func(ctx context.Context, id string) (Outcome, error) {
		ack, err := b.DeleteFile(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		if !ack.Deleted {
			return Outcome{}, fmt.Errorf("server did not delete file %s", id)
		}
		return Outcome{Message: "File deleted", Level: LevelSuccess, Refresh: RefreshFiles}, nil
	}))

	return t
}

// FormatResult renders a task result as Markdown. The output is already
// Markdown; structured errors go in a fenced JSON block.
func FormatResult(res *models.TaskResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	if res.Output != "" {
		parts = append(parts, res.Output)
	}
	if res.OutputError != "" {
		parts = append(parts, "**output unavailable:** "+res.OutputError)
	}
	if text := res.ErrorText(); text != "" {
		if json.Valid(res.Error) && !strings.HasPrefix(strings.TrimSpace(string(res.Error)), `"`) {
			parts = append(parts, "**error:**\n\n```json\n"+text+"\n```")
		} else {
			parts = append(parts, "**error:** "+text)
		}
	}
	if res.ErrorFileError != "" {
		parts = append(parts, "**error file unavailable:** "+res.ErrorFileError)
	}
	if len(parts) == 0 {
		return "(empty result)"
	}
	return strings.Join(parts, "\n\n")
}

// FormatBatch renders a batch as labeled lines with local timestamps.
func FormatBatch(b *models.Batch) string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	line := func(indent, label, value string) {
		fmt.Fprintf(&sb, "%s%-*s %s\n", indent, 14-len(indent), label+":", value)
	}

	line("", "Batch", b.ID)
	line("", "Status", b.Status)
	if b.CompletionWindow != "" {
		line("", "Window", b.CompletionWindow)
	}

	sb.WriteString("\nFiles\n")
	line("  ", "Input", orNone(b.InputFileID))
	line("  ", "Output", orNone(b.OutputFileID))
	line("  ", "Errors", orNone(b.ErrorFileID))

	sb.WriteString("\nTimes\n")
	line("  ", "Created", stamp(&b.CreatedAt, "unknown"))
	if b.InProgressAt != nil {
		line("  ", "Started", stamp(b.InProgressAt, ""))
	}
	if b.FinalizingAt != nil {
		line("  ", "Finalizing", stamp(b.FinalizingAt, ""))
	}
	line("  ", "Completed", stamp(b.CompletedAt, "not completed"))
	line("  ", "Expires", stamp(b.ExpiresAt, "not set"))

	var counts models.RequestCounts
	if b.RequestCounts != nil {
		counts = *b.RequestCounts
	}
	sb.WriteString("\nRequests\n")
	line("  ", "Total", fmt.Sprint(counts.Total))
	line("  ", "Completed", fmt.Sprint(counts.Completed))
	line("  ", "Failed", fmt.Sprint(counts.Failed))

	if b.Errors != nil && len(b.Errors.Data) > 0 {
		sb.WriteString("\nErrors\n")
		for _, e := range b.Errors.Data {
			fmt.Fprintf(&sb, "  - %s: %s\n", e.Code, e.Message)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orNone(id *string) string {
	if id == nil || *id == "" {
		return "(none)"
	}
	return *id
}

func stamp(ts *int64, missing string) string {
	if ts == nil || *ts == 0 {
		return missing
	}
	t := time.Unix(*ts, 0)
	return fmt.Sprintf("%s (%s)", t.Format("2006-01-02 15:04:05"), humanize.Time(t))
}
