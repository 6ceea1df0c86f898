package client

import (
	"context"
	"net/http"

	"github.com/ldi/taskdeck/pkg/models"
)

const pathBatches = "/api/batch/list"

// ListBatches returns the batches from the {"data": [...]} envelope.
func (c *Client) ListBatches(ctx context.Context) ([]*models.Batch, error) {
	data, err := c.send(ctx, request{method: http.MethodGet, path: pathBatches})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[*models.Batch](http.MethodGet, pathBatches, data)
}

func (c *Client) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var batch models.Batch
	if err := c.getJSON(ctx, "/api/batch/batches/"+escape(id), &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// DeleteBatch cancels the batch server side and returns its final state.
func (c *Client) DeleteBatch(ctx context.Context, id string) (*models.Batch, error) {
	var batch models.Batch
	if err := c.delete(ctx, "/api/batch/batches/"+escape(id), &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}
