// Package resource holds composed results behind opaque handles, the way a
// browser hands out object URLs for blobs. Handles are never revoked while
// the process lives.
package resource

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource: not found")

// Handle is the public view of one stored result.
type Handle struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

type entry struct {
	h    Handle
	data []byte
}

// Store keeps every result created during the session. The most recent one
// is the current result.
type Store struct {
	mu      sync.RWMutex
	prefix  string
	items   map[string]entry
	current string
}

// NewStore returns a store whose handle URLs start with prefix, e.g. "/results/".
func NewStore(prefix string) *Store {
	return &Store{prefix: prefix, items: make(map[string]entry)}
}

// Create stores a copy of data and makes it the current result.
func (s *Store) Create(data []byte, contentType string) Handle {
	id := uuid.NewString()
	h := Handle{
		ID:          id,
		URL:         s.prefix + id,
		ContentType: contentType,
		Size:        len(data),
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.items[id] = entry{h: h, data: append([]byte(nil), data...)}
	s.current = id
	s.mu.Unlock()
	return h
}

// Current returns the most recently created handle.
func (s *Store) Current() (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[s.current]
	return e.h, ok
}

// Open returns the handle and bytes for id. Callers must not modify the bytes.
func (s *Store) Open(id string) (Handle, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return Handle{}, nil, ErrNotFound
	}
	return e.h, e.data, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
