package models

import (
	"bytes"
	"encoding/json"
)

type TaskStatus string

const (
	TaskStatusValidating TaskStatus = "validating"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusFinalizing TaskStatus = "finalizing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusExpiring   TaskStatus = "expiring"
	TaskStatusExpired    TaskStatus = "expired"
	TaskStatusCancelling TaskStatus = "cancelling"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every status the server can report, in lifecycle order.
var TaskStatuses = []TaskStatus{
	TaskStatusValidating,
	TaskStatusInProgress,
	TaskStatusFinalizing,
	TaskStatusCompleted,
	TaskStatusFailed,
	TaskStatusExpiring,
	TaskStatusExpired,
	TaskStatusCancelling,
	TaskStatusCancelled,
}

// Valid reports whether s is one of the nine known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusValidating, TaskStatusFailed, TaskStatusInProgress,
		TaskStatusFinalizing, TaskStatusCompleted, TaskStatusExpiring,
		TaskStatusExpired, TaskStatusCancelling, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

type Task struct {
	ID           string          `json:"id"`
	Content      string          `json:"content"`
	SystemPrompt *string         `json:"system_prompt,omitempty"`
	Status       TaskStatus      `json:"status"`
	BatchID      *string         `json:"batch_id,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

// HasResult reports whether the server attached a result payload.
func (t *Task) HasResult() bool {
	r := bytes.TrimSpace(t.Result)
	if len(r) == 0 {
		return false
	}
	switch string(r) {
	case "null", `""`, "{}":
		return false
	}
	return true
}

// TaskResult is the payload of GET /api/task/{id}/result. Error holds the
// parsed error file, usually an object. OutputError and ErrorFileError report
// files the server could not read.
type TaskResult struct {
	Output         string          `json:"output,omitempty"`
	Error          json.RawMessage `json:"error,omitempty"`
	OutputError    string          `json:"output_error,omitempty"`
	ErrorFileError string          `json:"error_file_error,omitempty"`
}

// ErrorText returns Error for display: strings unquoted, anything else
// indented JSON. Null and empty values yield "".
func (r *TaskResult) ErrorText() string {
	raw := bytes.TrimSpace(r.Error)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

// CreateTaskRequest is the body of a single task submission.
type CreateTaskRequest struct {
	Content      string `json:"content" validate:"required,notblank"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
