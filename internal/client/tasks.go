package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ldi/taskdeck/pkg/models"
)

const pathTasks = "/api/task/get"

// ListTasks returns every task. The endpoint answers with a bare array.
func (c *Client) ListTasks(ctx context.Context) ([]*models.Task, error) {
	data, err := c.send(ctx, request{method: http.MethodGet, path: pathTasks})
	if err != nil {
		return nil, err
	}
	return decodeArray[*models.Task](http.MethodGet, pathTasks, data)
}

// CreateTask submits a single task. A blank systemPrompt is omitted.
func (c *Client) CreateTask(ctx context.Context, content, systemPrompt string) (*models.Task, error) {
	req := models.CreateTaskRequest{
		Content:      strings.TrimSpace(content),
		SystemPrompt: strings.TrimSpace(systemPrompt),
	}
	if err := c.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: "content", Message: "task content is required"}
		}
		return nil, &ValidationError{Message: err.Error()}
	}

	var task models.Task
	if err := c.postJSON(ctx, c.createPath, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CancelTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.postJSON(ctx, "/api/task/"+escape(id)+"/cancel", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/task/"+escape(id), nil)
}

func (c *Client) GetTaskResult(ctx context.Context, id string) (*models.TaskResult, error) {
	var result models.TaskResult
	if err := c.getJSON(ctx, "/api/task/"+escape(id)+"/result", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckTaskStatus asks the server to refresh and return one task.
func (c *Client) CheckTaskStatus(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.getJSON(ctx, "/api/task/"+escape(id)+"/status", &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetBatchStatus returns the batch behind a task.
func (c *Client) GetBatchStatus(ctx context.Context, batchID string) (*models.Batch, error) {
	var batch models.Batch
	if err := c.getJSON(ctx, "/api/task/batches/"+escape(batchID), &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}
