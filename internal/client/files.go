package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/ldi/taskdeck/pkg/models"
)

const pathFiles = "/api/batch/files"

func (c *Client) ListFiles(ctx context.Context) ([]*models.File, error) {
	data, err := c.send(ctx, request{method: http.MethodGet, path: pathFiles})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[*models.File](http.MethodGet, pathFiles, data)
}

func (c *Client) DeleteFile(ctx context.Context, id string) (*models.FileDeleted, error) {
	var ack models.FileDeleted
	if err := c.delete(ctx, pathFiles+"/"+escape(id), &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// DownloadURL is the address the server streams a file from.
func (c *Client) DownloadURL(id string) string {
	return c.baseURL + pathFiles + "/" + escape(id) + "/download"
}

// DownloadFile navigates the opener to the download URL. It does not fetch
// the bytes itself.
func (c *Client) DownloadFile(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", &ValidationError{Field: "file_id", Message: "file id is required"}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u := c.DownloadURL(id)
	if c.opener == nil {
		return u, errors.New("no opener configured")
	}
	if err := c.opener.Open(u); err != nil {
		return u, err
	}
	c.log.WithField("url", u).Info("download started")
	return u, nil
}
