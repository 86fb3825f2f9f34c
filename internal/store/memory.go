package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps atoms in a map for the life of the process.
//
// Thread-safety: all methods are safe for concurrent use via internal
// RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	atoms map[string]Atom
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{atoms: make(map[string]Atom)}
}

// Put stores atom under its id.
func (s *MemoryStore) Put(_ context.Context, atom Atom) error {
	if err := atom.Validate(); err != nil {
		return fmt.Errorf("put atom: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atoms[atom.ID] = atom
	return nil
}

// Get returns the atom stored under id.
func (s *MemoryStore) Get(_ context.Context, id string) (Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	atom, ok := s.atoms[id]
	if !ok {
		return Atom{}, fmt.Errorf("get atom %s: %w", id, ErrNotFound)
	}
	return atom, nil
}

// Len returns the number of stored atoms.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.atoms)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
