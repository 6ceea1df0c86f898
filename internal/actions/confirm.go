package actions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Confirmer asks the user a yes/no question. Confirm blocks until the user
// answers or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Always answers every prompt with the same value.
type Always bool

func (a Always) Confirm(context.Context, string) (bool, error) { return bool(a), nil }

// Guarded wraps h behind a confirmation. A declined prompt returns a
// Declined outcome without calling h.
func Guarded(c Confirmer, prompt string, h Handler) Handler {
	return func(ctx context.Context, id string) (Outcome, error) {
		ok, err := c.Confirm(ctx, prompt)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{Declined: true}, nil
		}
		return h(ctx, id)
	}
}

// PromptConfirmer reads [y/N] answers from a line-oriented stream. One
// goroutine owns the stream for the confirmer's lifetime and hands lines to
// Confirm, so input typed ahead is kept for the next prompt. That goroutine
// exits only when the stream ends or fails; a Confirm abandoned through ctx
// leaves it blocked on the stream.
type PromptConfirmer struct {
	in  io.Reader
	out io.Writer

	start sync.Once
	lines chan string
	err   error // set before lines is closed
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out, lines: make(chan string)}
}

func (p *PromptConfirmer) read() {
	defer close(p.lines)
	r := bufio.NewReader(p.in)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			p.lines <- line
		}
		if err != nil {
			if err != io.EOF {
				p.err = err
			}
			return
		}
	}
}

func (p *PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/N] ", prompt); err != nil {
		return false, err
	}
	p.start.Do(func() { go p.read() })

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			if p.err != nil {
				return false, fmt.Errorf("failed to read confirmation: %w", p.err)
			}
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
