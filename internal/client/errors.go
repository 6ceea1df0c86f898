package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError rejects input before any request is sent.
type ValidationError struct {
	Field    string
	Filename string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("file %q: %s", e.Filename, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RequestFailed is a non-2xx response.
type RequestFailed struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

// TransportError is a failure to get any response at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponse is a 2xx body that does not have the expected shape.
type MalformedResponse struct {
	Method string
	Path   string
	Err    error
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("%s %s: malformed response: %v", e.Method, e.Path, e.Err)
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// errorMessage extracts the server's message from an error body. It never
// fails: unparsable bodies yield a generic message.
func errorMessage(body []byte, status int) string {
	generic := fmt.Sprintf("request failed with status %d", status)
	if text := http.StatusText(status); text != "" {
		generic = fmt.Sprintf("request failed with status %d (%s)", status, text)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return generic
	}

	switch detail := payload["detail"].(type) {
	case string:
		if detail != "" {
			return detail
		}
	case []any:
		var msgs []string
		for _, item := range detail {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	return generic
}
