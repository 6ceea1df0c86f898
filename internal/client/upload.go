package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ldi/taskdeck/pkg/models"
)

const (
	// MaxUploadBytes is the largest file the service accepts.
	MaxUploadBytes = 1 << 20

	DefaultSystemPrompt = "you are a helpful assistant"

	pathUpload = "/api/task/upload"
)

// Upload is one file to submit; Size is checked before Open is called.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFromBytes wraps in-memory content.
func UploadFromBytes(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// UploadFromPath stats path without reading it.
func UploadFromPath(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Upload{}, &ValidationError{Filename: filepath.Base(path), Message: "is a directory"}
	}
	return Upload{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// CheckUploads enforces the per-file size limit.
func CheckUploads(files []Upload) error {
	if len(files) == 0 {
		return &ValidationError{Field: "files", Message: "at least one file is required"}
	}
	for _, f := range files {
		if f.Size > MaxUploadBytes {
			return &ValidationError{Filename: f.Name, Message: "exceeds the 1MB size limit"}
		}
	}
	return nil
}

// UploadTaskFiles creates one task per file. Every file is checked before
// anything is sent, so a rejected batch uploads nothing.
func (c *Client) UploadTaskFiles(ctx context.Context, files []Upload, systemPrompt string) ([]*models.Task, error) {
	if err := CheckUploads(files); err != nil {
		return nil, err
	}

	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		if err := writePart(mw, f); err != nil {
			return nil, err
		}
	}
	if err := mw.WriteField("system_prompt", systemPrompt); err != nil {
		return nil, fmt.Errorf("failed to encode system prompt: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	data, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        pathUpload,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return decodeArray[*models.Task](http.MethodPost, pathUpload, data)
}

func writePart(mw *multipart.Writer, f Upload) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	part, err := mw.CreateFormFile("files", f.Name)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.Name, err)
	}
	// The stat may be stale; never send more than the limit.
	n, err := io.Copy(part, io.LimitReader(rc, MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if n > MaxUploadBytes {
		return &ValidationError{Filename: f.Name, Message: "exceeds the 1MB size limit"}
	}
	return nil
}
