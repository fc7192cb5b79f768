package testutil

import (
	"fmt"
	"sync"
)

// IDSequence hands out deterministic identifiers ("run-0001",
// "run-0002", ...) so tests can assert on stable IDs instead of
// random UUIDs.
type IDSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewIDSequence creates a sequence with the given prefix.
func NewIDSequence(prefix string) *IDSequence {
	return &IDSequence{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (s *IDSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", s.prefix, s.n)
}
