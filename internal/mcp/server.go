package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/internal/taxonomy"
	"github.com/ldi/taskdeck/internal/view"
	"github.com/ldi/taskdeck/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Backend is the API the tools call.
type Backend interface {
	actions.Backend
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, content, systemPrompt string) (*models.Task, error)
	ListBatches(ctx context.Context) ([]*models.Batch, error)
	ListFiles(ctx context.Context) ([]*models.File, error)
	DownloadURL(id string) string
}

type tools struct {
	backend Backend
	tax     *taxonomy.Taxonomy
	// confirmed runs destructive actions; unconfirmed declines them.
	confirmed   *actions.Table
	unconfirmed *actions.Table
}

// NewServer creates a new MCP server.
func NewServer(backend Backend, tax *taxonomy.Taxonomy) *server.MCPServer {
	if tax == nil {
		tax = taxonomy.Default
	}
	t := &tools{
		backend:     backend,
		tax:         tax,
		confirmed:   actions.Standard(backend, actions.Always(true), tax),
		unconfirmed: actions.Standard(backend, actions.Always(false), tax),
	}

	s := server.NewMCPServer("taskdeck", "0.1.0")

	// Tasks
	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List all tasks with their status label and the actions each status allows."),
		mcp.WithString("status", mcp.Description("Only return tasks with this status")),
	), t.listTasks)

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Submit a single task."),
		mcp.WithString("content", mcp.Description("Task content"), mcp.Required()),
		mcp.WithString("system_prompt", mcp.Description("Optional system prompt")),
	), t.createTask)

	s.AddTool(mcp.NewTool("cancel_task",
		mcp.WithDescription("Cancel a validating, in-progress or finalizing task. Requires confirm=true."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to perform the cancellation")),
	), t.destructive(actions.Cancel))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a finished task. Requires confirm=true."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to perform the deletion")),
	), t.destructive(actions.Delete))

	s.AddTool(mcp.NewTool("get_task_result",
		mcp.WithDescription("Get the result of a completed task."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), t.getTaskResult)

	// Batches
	s.AddTool(mcp.NewTool("get_batch_status",
		mcp.WithDescription("Get the batch a task was submitted in."),
		mcp.WithString("batch_id", mcp.Description("Batch ID"), mcp.Required()),
	), t.getBatchStatus)

	s.AddTool(mcp.NewTool("list_batches",
		mcp.WithDescription("List batches with status counts. The date range applies only when both dates are given."),
		mcp.WithString("start_date", mcp.Description("First creation day, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Description("Last creation day, YYYY-MM-DD")),
		mcp.WithString("status", mcp.Description("Only return batches with this status")),
	), t.listBatches)

	// Files
	s.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List files produced by batches."),
	), t.listFiles)

	s.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Delete a file. Requires confirm=true."),
		mcp.WithString("id", mcp.Description("File ID"), mcp.Required()),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to perform the deletion")),
	), t.destructive(actions.DeleteFile))

	s.AddTool(mcp.NewTool("download_file_url",
		mcp.WithDescription("Get the URL a file can be downloaded from."),
		mcp.WithString("id", mcp.Description("File ID"), mcp.Required()),
	), t.downloadFileURL)

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

type taskSummary struct {
	*models.Task
	StatusLabel string           `json:"status_label"`
	Actions     []actions.Action `json:"actions"`
}

func (t *tools) listTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := mcp.ParseString(request, "status", "")

	tasks, err := t.backend.ListTasks(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kept := make([]*models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if status != "" && string(task.Status) != status {
			continue
		}
		kept = append(kept, task)
	}

	// Rows line up with kept because the reconciler only drops nil entries.
	list := view.NewReconciler(t.tax, t.confirmed, nil).Tasks(kept, nil)
	items := make([]taskSummary, 0, len(list.Rows))
	for i, row := range list.Rows {
		acts := row.Actions
		if acts == nil {
			acts = []actions.Action{}
		}
		items = append(items, taskSummary{Task: kept[i], StatusLabel: row.Status.Label, Actions: acts})
	}
	return jsonResult(map[string]any{"tasks": items})
}

func (t *tools) createTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := mcp.ParseString(request, "content", "")
	systemPrompt := mcp.ParseString(request, "system_prompt", "")

	task, err := t.backend.CreateTask(ctx, content, systemPrompt)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

// destructive returns a handler that only reaches the API with confirm=true.
func (t *tools) destructive(a actions.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		table := t.unconfirmed
		if mcp.ParseBoolean(request, "confirm", false) {
			table = t.confirmed
		}
		out, err := table.Dispatch(ctx, a, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if out.Declined {
			return mcp.NewToolResultText(fmt.Sprintf("Not confirmed: call again with confirm=true to %s '%s'.", a, id)), nil
		}
		return mcp.NewToolResultText(out.Message), nil
	}
}

func (t *tools) getTaskResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	res, err := t.backend.GetTaskResult(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (t *tools) getBatchStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "batch_id", "")
	b, err := t.backend.GetBatchStatus(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}

type batchSummary struct {
	*models.Batch
	StatusLabel  string  `json:"status_label"`
	CompletedPct float64 `json:"completed_pct"`
	FailedPct    float64 `json:"failed_pct"`
}

func (t *tools) listBatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := batches.ParseFilter(
		mcp.ParseString(request, "start_date", ""),
		mcp.ParseString(request, "end_date", ""),
		mcp.ParseString(request, "status", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	all, err := t.backend.ListBatches(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filtered := batches.ApplyFilter(all, filter)
	items := make([]batchSummary, 0, len(filtered))
	for _, b := range filtered {
		if b == nil {
			continue
		}
		completed, failed := batches.Progress(b.RequestCounts)
		items = append(items, batchSummary{
			Batch:        b,
			StatusLabel:  t.tax.Label(b.Status),
			CompletedPct: completed,
			FailedPct:    failed,
		})
	}

	stats := batches.ComputeStatusStats(filtered, t.tax)
	counts := make([]map[string]any, 0, len(stats))
	for _, s := range stats {
		counts = append(counts, map[string]any{"status": s.Status, "label": s.Label, "count": s.Count})
	}
	return jsonResult(map[string]any{"batches": items, "stats": counts, "total": len(items)})
}

func (t *tools) listFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := t.backend.ListFiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"files": files})
}

func (t *tools) downloadFileURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	return mcp.NewToolResultText(t.backend.DownloadURL(id)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
