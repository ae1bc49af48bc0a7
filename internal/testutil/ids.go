package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns UUID-shaped IDs that count up from 1.
//
// This enables deterministic journal contents in tests: the same sequence of
// commands yields byte-identical entries.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      uint64
}

// NewSequentialIDGenerator creates a generator. prefix must be 8 hex digits or
// empty (defaults to "00000000").
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "00000000"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID, e.g. "00000000-0000-7000-8000-000000000001".
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-0000-7000-8000-%012x", g.prefix, g.n)
}
