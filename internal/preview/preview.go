package preview

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	data        []byte
	contentType string
}

// Store holds file-sourced preview bytes addressable by an opaque handle.
// Handles are a releasable resource: every path that replaces one must call
// Release on the old handle or the bytes accumulate for the process lifetime.
// Link-sourced previews are plain URL strings and never enter the store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewStore creates an empty preview store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Put registers preview bytes and returns the handle to address them with.
func (s *Store) Put(data []byte, contentType string) string {
	handle := uuid.NewString()
	s.mu.Lock()
	s.entries[handle] = entry{data: data, contentType: contentType}
	s.mu.Unlock()
	return handle
}

// Get returns the bytes and content type behind a handle.
func (s *Store) Get(handle string) ([]byte, string, bool) {
	s.mu.RLock()
	e, ok := s.entries[handle]
	s.mu.RUnlock()
	return e.data, e.contentType, ok
}

// Release frees the bytes behind a handle. Releasing an unknown or already
// released handle is a no-op.
func (s *Store) Release(handle string) {
	if handle == "" {
		return
	}
	s.mu.Lock()
	delete(s.entries, handle)
	s.mu.Unlock()
}

// Len reports the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
