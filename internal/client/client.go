// Package client talks to the batch processing service's REST API and
// translates every failure into one of the typed errors in errors.go.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"github.com/ldi/taskdeck/internal/config"
	"github.com/ldi/taskdeck/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Opener hands a URL to something that can navigate to it.
type Opener interface {
	Open(url string) error
}

type Client struct {
	baseURL    string
	createPath string
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	validate   *validator.Validate
	opener     Opener
	log        *logrus.Entry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) { c.log = logging.Component(logger, "client") }
}

func WithOpener(o Opener) Option {
	return func(c *Client) { c.opener = o }
}

// WithCreatePath selects the single-task creation endpoint.
func WithCreatePath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.createPath = path
		}
	}
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) { c.breaker = newBreaker(maxFailures, openTimeout) }
}

// New returns a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		createPath: config.DefaultCreatePath,
		http:       &http.Client{Timeout: 30 * time.Second},
		breaker:    newBreaker(5, 10*time.Second),
		validate:   v,
		opener:     SystemOpener{},
		log:        logging.Component(logging.Discard(), "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a client from loaded settings.
func FromConfig(cfg *config.Config, logger logrus.FieldLogger, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Server.Timeout}),
		WithLogger(logger),
		WithCreatePath(cfg.API.CreatePath),
		WithBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout),
	}
	return New(cfg.Server.BaseURL, append(base, opts...)...)
}

func newBreaker(maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "taskdeck-api",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Only an unreachable or failing server trips the breaker; 4xx
		// answers are the caller's problem.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var rf *RequestFailed
			if errors.As(err, &rf) {
				return rf.Status < http.StatusInternalServerError
			}
			return false
		},
	})
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
}

// send performs one request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	reqID := uuid.NewString()
	entry := c.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"method":     r.method,
		"path":       r.path,
	})
	started := time.Now()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
		if err != nil {
			return nil, &TransportError{Method: r.method, Path: r.path, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", reqID)
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &TransportError{Method: r.method, Path: r.path, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Method: r.method, Path: r.path, Err: err}
		}
		entry = entry.WithField("status", resp.StatusCode)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &RequestFailed{
				Method:  r.method,
				Path:    r.path,
				Status:  resp.StatusCode,
				Message: errorMessage(data, resp.StatusCode),
			}
		}
		return data, nil
	})

	entry = entry.WithField("duration", time.Since(started))
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &TransportError{Method: r.method, Path: r.path, Err: err}
		}
		entry.WithError(err).Warn("request failed")
		return nil, err
	}
	entry.Debug("request completed")
	return out.([]byte), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.send(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(http.MethodGet, path, data, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	data, err := c.send(ctx, request{method: http.MethodPost, path: path, body: body, contentType: contentType})
	if err != nil {
		return err
	}
	return decode(http.MethodPost, path, data, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	data, err := c.send(ctx, request{method: http.MethodDelete, path: path})
	if err != nil {
		return err
	}
	return decode(http.MethodDelete, path, data, out)
}

func decode(method, path string, data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &MalformedResponse{Method: method, Path: path, Err: err}
	}
	return nil
}

// decodeArray decodes a bare JSON array, rejecting null and non-array bodies.
func decodeArray[T any](method, path string, data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponse{Method: method, Path: path, Err: errors.New("expected a JSON array")}
	}
	items := make([]T, 0)
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &MalformedResponse{Method: method, Path: path, Err: err}
	}
	return items, nil
}

type envelope[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

// decodeEnvelope decodes a {"data": [...]} list.
func decodeEnvelope[T any](method, path string, data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &MalformedResponse{Method: method, Path: path, Err: errors.New("expected a {\"data\": [...]} envelope")}
	}
	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &MalformedResponse{Method: method, Path: path, Err: err}
	}
	if env.Data == nil {
		env.Data = make([]T, 0)
	}
	return env.Data, nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
