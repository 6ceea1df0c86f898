package view

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/pkg/models"
)

func TestRenderTasks(t *testing.T) {
	r := NewReconciler(nil, nil, nil)
	list := r.Tasks([]*models.Task{
		{ID: "task-1", Content: "hello", Status: models.TaskStatusValidating},
		{ID: "task-2", Content: "done", Status: models.TaskStatusCompleted, Result: []byte(`"ok"`)},
	}, nil)

	view := RenderTasks(list, 0, 60)

	for _, want := range []string{"task-1", "hello", "Validating", "c cancel", "task-2", "Completed", "result available", "r result", "d delete"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if strings.Index(view, "task-1") > strings.Index(view, "task-2") {
		t.Errorf("expected rows in server order")
	}
}

func TestRenderTasksEmptyState(t *testing.T) {
	r := NewReconciler(nil, nil, nil)
	view := RenderTasks(r.Tasks([]*models.Task{}, nil), 0, 60)
	if !strings.Contains(view, "No tasks yet") {
		t.Errorf("expected empty state, got %q", view)
	}
}

func TestRenderTasksWidth(t *testing.T) {
	width := 30
	r := NewReconciler(nil, nil, nil)
	list := r.Tasks([]*models.Task{
		{ID: "t1", Content: "a fairly long piece of content", SystemPrompt: str(strings.Repeat("p", 90)), Status: models.TaskStatusInProgress},
	}, nil)

	for _, line := range strings.Split(RenderTasks(list, 0, width), "\n") {
		if w := lipgloss.Width(line); w > width {
			t.Errorf("line too wide: %d > %d. Line: %q", w, width, line)
		}
	}
}

func TestRenderBatches(t *testing.T) {
	now := time.Now()
	r := NewReconciler(nil, nil, nil)
	all := []*models.Batch{
		{ID: "batch-1", Status: "completed", CreatedAt: now.Unix(), RequestCounts: &models.RequestCounts{Total: 2, Completed: 2}},
		{ID: "batch-2", Status: "completed", CreatedAt: now.Unix()},
		{ID: "batch-3", Status: "in_progress", CreatedAt: now.Unix(), InputFileID: str("file-in")},
	}
	view := RenderBatches(r.Batches(all, batches.DefaultFilter(now, 30), nil), 1, 80)

	for _, want := range []string{"Completed 2", "In progress 1", "batch-1", "100.0% / 0.0%", "0.0% / 0.0%", "file-in", "all statuses"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderFiles(t *testing.T) {
	r := NewReconciler(nil, nil, nil)
	view := RenderFiles(r.Files([]*models.File{
		{ID: "file-1", Filename: "results.jsonl", Bytes: 1000, Purpose: "batch_output", Status: "processed"},
	}, nil), 0, 80)

	for _, want := range []string{"results.jsonl", "file-1", "1.0 kB", "batch_output", "o download", "d delete"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestProgressBarWidth(t *testing.T) {
	cases := [][2]float64{{0, 0}, {50, 25}, {100, 0}, {66.7, 33.3}, {125, 0}, {80, 80}, {-10, 50}, {0, -5}}
	for _, c := range cases {
		if w := lipgloss.Width(ProgressBar(c[0], c[1], 20)); w != 20 {
			t.Errorf("ProgressBar(%v, %v) width = %d, want 20", c[0], c[1], w)
		}
	}
}

func TestRenderBatchesInconsistentCounts(t *testing.T) {
	r := NewReconciler(nil, nil, nil)
	list := r.Batches([]*models.Batch{
		{ID: "batch-over", Status: "completed", CreatedAt: time.Now().Unix(), RequestCounts: &models.RequestCounts{Total: 4, Completed: 5}},
		{ID: "batch-neg", Status: "failed", CreatedAt: time.Now().Unix(), RequestCounts: &models.RequestCounts{Total: 4, Completed: -2, Failed: 9}},
	}, batches.Filter{}, nil)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("RenderBatches panicked: %v", r)
		}
	}()
	view := RenderBatches(list, 0, 60)
	if !strings.Contains(view, "batch-over") || !strings.Contains(view, "batch-neg") {
		t.Errorf("expected both batches rendered, got %q", view)
	}
	if !strings.Contains(view, "100.0% / 0.0%") {
		t.Errorf("expected clamped percentages, got %q", view)
	}
}

func TestDrawer(t *testing.T) {
	d := NewDrawer(40, 10)
	if d.View() != "" {
		t.Errorf("expected closed drawer to render nothing")
	}

	d.Show("Result t1", "hello output")
	view := d.View()
	if !strings.Contains(view, "Result t1") || !strings.Contains(view, "hello output") {
		t.Errorf("expected title and body, got %q", view)
	}

	d.Close()
	if d.IsOpen() || d.View() != "" {
		t.Errorf("expected drawer to close")
	}
}

func TestDrawerRendersMarkdown(t *testing.T) {
	d := NewDrawer(60, 20)
	d.ShowMarkdown("Result t1", "# Summary\n\nThe **answer** is 42.\n\n- first\n- second")

	view := d.View()
	if !strings.Contains(view, "Summary") || !strings.Contains(view, "answer") || !strings.Contains(view, "second") {
		t.Errorf("expected rendered markdown content, got %q", view)
	}
	if strings.Contains(view, "**answer**") || strings.Contains(view, "# Summary") {
		t.Errorf("expected markdown syntax to be rendered, got %q", view)
	}

	d.Show("Batch b1", "**literal**")
	if !strings.Contains(d.View(), "**literal**") {
		t.Errorf("expected plain body to stay unrendered")
	}
}

func TestDrawerScrollbar(t *testing.T) {
	d := NewDrawer(20, 6)
	d.Show("Batch", strings.Repeat("line\n", 20))

	view := d.View()
	if !strings.Contains(view, "┃") {
		t.Errorf("expected view to contain scrollbar handle '┃'")
	}
	if !strings.Contains(view, "│") {
		t.Errorf("expected view to contain scrollbar track '│'")
	}
}

func TestDrawerWrapping(t *testing.T) {
	width := 20
	d := NewDrawer(width, 10)
	d.Show("T", "this is a very long line that should definitely wrap because it exceeds the width of twenty characters")

	lines := strings.Split(strings.TrimSpace(d.View()), "\n")
	if len(lines) <= 2 {
		t.Errorf("expected content to wrap, got %d lines", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w > width {
			t.Errorf("line %d is too wide: %d > %d", i, w, width)
		}
	}
}
