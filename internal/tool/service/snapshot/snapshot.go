// Package snapshot remembers the original content of files mutated during the
// server's lifetime so that changes can be diffed without version control.
package snapshot

import (
	"slices"
	"sync"
)

// Snapshot is the state of a path before its first mutation.
type Snapshot struct {
	Content []byte
	Existed bool
}

// Store is an in-memory, first-write-wins map of original file states.
type Store struct {
	mu        sync.Mutex
	originals map[string]Snapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{originals: make(map[string]Snapshot)}
}

// Capture records the original state of rel unless it was already captured.
func (s *Store) Capture(rel string, content []byte, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.originals[rel]; ok {
		return
	}
	s.originals[rel] = Snapshot{Content: slices.Clone(content), Existed: existed}
}

// Get returns the original state of rel.
func (s *Store) Get(rel string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.originals[rel]
	return snap, ok
}

// Paths returns every captured path in sorted order.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.originals))
	for p := range s.originals {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
