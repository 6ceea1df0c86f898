package dashboard

import (
	"context"
	"sync"
	"time"
)

// Poller calls fn every interval between Start and Stop.
type Poller struct {
	interval time.Duration
	fn       func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, fn func()) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, fn: fn}
}

// Start launches the tick loop. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fn()
		}
	}
}

// Stop halts the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) Interval() time.Duration { return p.interval }
