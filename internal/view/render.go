package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/internal/taxonomy"
)

var classColors = map[taxonomy.Class]lipgloss.Color{
	taxonomy.ClassWarning: lipgloss.Color("220"),
	taxonomy.ClassDanger:  lipgloss.Color("196"),
	taxonomy.ClassInfo:    lipgloss.Color("39"),
	taxonomy.ClassSuccess: lipgloss.Color("42"),
	taxonomy.ClassCaution: lipgloss.Color("208"),
	taxonomy.ClassMuted:   lipgloss.Color("240"),
}

var (
	rowStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	resultBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Italic(true)
)

// ClassColor returns the badge color for a severity class.
func ClassColor(c taxonomy.Class) lipgloss.Color {
	if col, ok := classColors[c]; ok {
		return col
	}
	return classColors[taxonomy.ClassMuted]
}

// Badge renders a status label in its class color.
func Badge(info taxonomy.Info) string {
	return lipgloss.NewStyle().Bold(true).Foreground(ClassColor(info.Class)).Render(info.Label)
}

var actionLabels = map[actions.Action]string{
	actions.CheckBatch:   "b check batch",
	actions.GetResult:    "r result",
	actions.Cancel:       "c cancel",
	actions.Delete:       "d delete",
	actions.ViewBatch:    "enter view",
	actions.DeleteBatch:  "d delete",
	actions.DownloadFile: "o download",
	actions.DeleteFile:   "d delete",
}

// ActionLabel is the key hint shown for an affordance.
func ActionLabel(a actions.Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

func renderActions(list []actions.Action) string {
	if len(list) == 0 {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, a := range list {
		parts = append(parts, "["+ActionLabel(a)+"]")
	}
	return actionStyle.Render(strings.Join(parts, " "))
}

func box(body string, class taxonomy.Class, selected bool, width int) string {
	style := rowStyle.BorderForeground(ClassColor(class))
	if selected {
		style = style.Border(lipgloss.ThickBorder())
	}
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(body)
}

func field(name, value string) string {
	return fieldStyle.Render(name+":") + " " + value
}

// RenderTasks draws the task list with the row at selected highlighted.
func RenderTasks(list TaskList, selected, width int) string {
	if list.State != StateReady {
		return Placeholder(list.State, list.Message)
	}
	rows := make([]string, 0, len(list.Rows))
	for i, r := range list.Rows {
		rows = append(rows, TaskBlock(r, list.ResultLabel, i == selected, width))
	}
	return strings.Join(rows, "\n")
}

// TaskBlock draws one task row.
func TaskBlock(r TaskRow, resultLabel string, selected bool, width int) string {
	lines := []string{
		fmt.Sprintf("%s  %s", Badge(r.Status), r.ID),
		field("content", r.Content),
	}
	if r.SystemPrompt != "" {
		lines = append(lines, field("prompt", r.SystemPrompt))
	}
	if r.BatchID != "" {
		lines = append(lines, field("batch", r.BatchID))
	}
	if r.HasResult {
		lines = append(lines, resultBadgeStyle.Render(resultLabel))
	}
	if r.ErrorMessage != "" {
		lines = append(lines, failureStyle.UnsetPadding().Render(r.ErrorMessage))
	}
	if a := renderActions(r.Actions); a != "" {
		lines = append(lines, a)
	}
	return box(strings.Join(lines, "\n"), r.Status.Class, selected, width)
}

// RenderBatches draws the stats header followed by the filtered rows.
func RenderBatches(list BatchList, selected, width int) string {
	header := BatchHeader(list)
	if list.State != StateReady {
		return header + "\n" + placeholderStyle.Render(list.Message)
	}
	rows := make([]string, 0, len(list.Rows))
	for i, r := range list.Rows {
		rows = append(rows, BatchBlock(r, i == selected, width))
	}
	return header + "\n" + strings.Join(rows, "\n")
}

// BatchHeader shows the active filter and the status counts of the
// filtered set.
func BatchHeader(list BatchList) string {
	header := headerStyle.Render(filterSummary(list.Filter))
	if len(list.Stats) > 0 {
		parts := make([]string, 0, len(list.Stats))
		for _, s := range list.Stats {
			parts = append(parts, fmt.Sprintf("%s %d", s.Label, s.Count))
		}
		header += "\n" + headerStyle.Render(strings.Join(parts, " · "))
	}
	return header
}

// BatchBlock draws one batch row.
func BatchBlock(r BatchRow, selected bool, width int) string {
	lines := []string{
		fmt.Sprintf("%s  %s", Badge(r.Status), r.ID),
		field("created", fmt.Sprintf("%s (%s)", r.Created.Format("2006-01-02 15:04"), humanize.Time(r.Created))),
		field("requests", fmt.Sprintf("%d total, %d completed, %d failed", r.Counts.Total, r.Counts.Completed, r.Counts.Failed)),
		ProgressBar(r.CompletedPct, r.FailedPct, 20) + fmt.Sprintf(" %.1f%% / %.1f%%", r.CompletedPct, r.FailedPct),
	}
	if r.InputFileID != "" {
		lines = append(lines, field("input", r.InputFileID))
	}
	if r.OutputFileID != "" {
		lines = append(lines, field("output", r.OutputFileID))
	}
	if r.ErrorFileID != "" {
		lines = append(lines, field("errors", r.ErrorFileID))
	}
	if a := renderActions(r.Actions); a != "" {
		lines = append(lines, a)
	}
	return box(strings.Join(lines, "\n"), r.Status.Class, selected, width)
}

func filterSummary(f batches.Filter) string {
	parts := []string{}
	if f.Start != nil && f.End != nil {
		parts = append(parts, batches.FormatDate(f.Start)+" .. "+batches.FormatDate(f.End))
	} else {
		parts = append(parts, "all dates")
	}
	if f.Status != "" {
		parts = append(parts, "status "+f.Status)
	} else {
		parts = append(parts, "all statuses")
	}
	return strings.Join(parts, ", ")
}

// ProgressBar draws completed and failed shares on a width-cell track.
func ProgressBar(completedPct, failedPct float64, width int) string {
	if width < 0 {
		width = 0
	}
	done := clampCells(int(completedPct/100*float64(width)), width)
	failed := clampCells(int(failedPct/100*float64(width)), width-done)
	rest := width - done - failed
	return lipgloss.NewStyle().Foreground(ClassColor(taxonomy.ClassSuccess)).Render(strings.Repeat("█", done)) +
		lipgloss.NewStyle().Foreground(ClassColor(taxonomy.ClassDanger)).Render(strings.Repeat("█", failed)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Render(strings.Repeat("░", rest))
}

func clampCells(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

// RenderFiles draws the file list.
func RenderFiles(list FileList, selected, width int) string {
	if list.State != StateReady {
		return Placeholder(list.State, list.Message)
	}
	rows := make([]string, 0, len(list.Rows))
	for i, r := range list.Rows {
		rows = append(rows, FileBlock(r, i == selected, width))
	}
	return strings.Join(rows, "\n")
}

// FileBlock draws one file row.
func FileBlock(r FileRow, selected bool, width int) string {
	lines := []string{
		fmt.Sprintf("%s  %s", r.Filename, fieldStyle.Render(r.ID)),
		field("size", humanize.Bytes(uint64(max(r.Bytes, 0)))),
		field("purpose", r.Purpose),
		field("created", r.Created.Format("2006-01-02 15:04")),
		field("status", r.Status),
	}
	if r.StatusDetails != "" {
		lines = append(lines, field("details", r.StatusDetails))
	}
	if a := renderActions(r.Actions); a != "" {
		lines = append(lines, a)
	}
	return box(strings.Join(lines, "\n"), taxonomy.ClassMuted, selected, width)
}

// Placeholder renders a list's empty or failed state.
func Placeholder(state State, message string) string {
	if state == StateLoadFailed {
		return failureStyle.Render(message)
	}
	return placeholderStyle.Render(message)
}
