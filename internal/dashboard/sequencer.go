package dashboard

import "sync"

type Resource string

const (
	ResourceTasks   Resource = "tasks"
	ResourceBatches Resource = "batches"
	ResourceFiles   Resource = "files"
)

// Sequencer numbers requests per resource so a response that resolves after
// a newer one has been applied can be dropped.
type Sequencer struct {
	mu      sync.Mutex
	issued  map[Resource]uint64
	applied map[Resource]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{
		issued:  make(map[Resource]uint64),
		applied: make(map[Resource]uint64),
	}
}

// Begin returns the sequence number for a new request on r.
func (s *Sequencer) Begin(r Resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[r]++
	return s.issued[r]
}

// Accept reports whether the response numbered seq is newer than the last
// applied one, and records it if so.
func (s *Sequencer) Accept(r Resource, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied[r] {
		return false
	}
	s.applied[r] = seq
	return true
}
