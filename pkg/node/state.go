package node

import (
	"sync"

	"github.com/flowforge/flowengine/pkg/value"
)

// Store is a node instance's own mutable state, keyed by string. It is
// private to the node that owns it; the core never reads or writes it.
// Grounded on the teacher's RWMutex-guarded state.Manager, narrowed to a
// single per-instance map instead of a shared, workflow-wide manager.
type Store struct {
	mu   sync.RWMutex
	data map[string]value.Value
}

// NewStore creates an empty state store.
func NewStore() *Store {
	return &Store{data: make(map[string]value.Value)}
}

// Get retrieves a value, reporting whether it was present.
func (s *Store) Get(key string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value under key.
func (s *Store) Set(key string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
}

// Delete removes key, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Keys returns a snapshot of the stored keys.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
