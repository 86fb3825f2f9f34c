package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable atom and decision ids.
//
// Atom ids look like "atom_000000000001" and decision ids like
// "decision_0000000001", matching the widths of the random production ids
// so output shapes stay identical in golden files.
//
// Implements client.IDGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu        sync.Mutex
	atoms     int
	decisions int
}

// NewSequentialIDs creates a generator whose first ids end in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// AtomID returns the next atom id.
func (g *SequentialIDs) AtomID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.atoms++
	return fmt.Sprintf("atom_%012x", g.atoms)
}

// DecisionID returns the next decision id.
func (g *SequentialIDs) DecisionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decisions++
	return fmt.Sprintf("decision_%010x", g.decisions)
}

// Reset restarts both sequences.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.atoms = 0
	g.decisions = 0
}
