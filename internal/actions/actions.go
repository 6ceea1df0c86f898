// Package actions routes row affordances to their handlers. The dashboard,
// the CLI and the tool server share one Table so every surface gates
// destructive operations the same way.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Action string

const (
	CheckBatch   Action = "checkBatch"
	GetResult    Action = "getResult"
	Cancel       Action = "cancel"
	Delete       Action = "delete"
	ViewBatch    Action = "viewBatch"
	DeleteBatch  Action = "deleteBatch"
	DownloadFile Action = "downloadFile"
	DeleteFile   Action = "deleteFile"
)

// Destructive reports whether the action needs a confirmation.
func (a Action) Destructive() bool {
	switch a {
	case Cancel, Delete, DeleteBatch, DeleteFile:
		return true
	}
	return false
}

var ErrUnknownAction = errors.New("unknown action")

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Outcome is what a handler reports back to the surface that invoked it.
type Outcome struct {
	Action   Action
	ID       string
	Declined bool
	Message  string
	Level    Level
	// Detail carries a longer body such as a task result.
	Detail string
	// Markdown marks Detail as Markdown source.
	Markdown bool
	// Refresh names the resource to reload after the action, if any.
	Refresh string
}

type Handler func(ctx context.Context, id string) (Outcome, error)

// Table maps actions to handlers.
type Table struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
}

func NewTable() *Table {
	return &Table{handlers: make(map[Action]Handler)}
}

func (t *Table) Register(a Action, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[a] = h
}

func (t *Table) Has(a Action) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[a]
	return ok
}

// Dispatch runs the handler registered for a against id.
func (t *Table) Dispatch(ctx context.Context, a Action, id string) (Outcome, error) {
	t.mu.RLock()
	h, ok := t.handlers[a]
	t.mu.RUnlock()
	if !ok {
		return Outcome{Action: a, ID: id}, fmt.Errorf("%w: %s", ErrUnknownAction, a)
	}
	out, err := h(ctx, id)
	out.Action = a
	out.ID = id
	return out, err
}
