package dashboard

import "sync"

// Controls tracks which controls have a call in flight.
type Controls struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewControls() *Controls {
	return &Controls{busy: make(map[string]struct{})}
}

// Acquire marks name busy. It returns false if it already was.
func (c *Controls) Acquire(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.busy[name]; ok {
		return false
	}
	c.busy[name] = struct{}{}
	return true
}

func (c *Controls) Release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, name)
}

func (c *Controls) Busy(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[name]
	return ok
}

// Len is the number of busy controls.
func (c *Controls) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.busy)
}
