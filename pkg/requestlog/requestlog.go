// Package requestlog records requests served by a stub server so tests can
// inspect what was actually received. Entries are kept in a bounded
// in-memory circular buffer.
package requestlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry captures one served request.
type Entry struct {
	// ID is a unique identifier for the entry, assigned on Log.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request pathname.
	Path string `json:"path"`

	// QueryString is the raw query string, if any.
	QueryString string `json:"queryString,omitempty"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr"`

	// BodySize is the request body size in bytes.
	BodySize int `json:"bodySize"`

	// MatchedHandler names the handler that answered ("GET /ping"), empty
	// when the request fell through to the default response.
	MatchedHandler string `json:"matchedHandler,omitempty"`

	// ResponseStatus is the status code written.
	ResponseStatus int `json:"responseStatus"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int `json:"durationMs"`
}

// Store is the sink and query surface for served-request entries.
type Store interface {
	// Log records an entry, assigning it an ID and timestamp if unset.
	Log(entry *Entry)

	// List returns all entries, oldest first.
	List() []*Entry

	// Get returns the entry with the given ID, or nil.
	Get(id string) *Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of stored entries.
	Count() int
}

// MemoryStore is a thread-safe Store bounded to a maximum entry count;
// the oldest entries are evicted first.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int
}

// DefaultMaxEntries is the capacity used when none is given.
const DefaultMaxEntries = 1000

// NewMemoryStore creates a MemoryStore holding at most maxEntries entries.
// Non-positive values fall back to DefaultMaxEntries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make([]*Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Log implements Store.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
}

// List implements Store.
func (s *MemoryStore) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get implements Store.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Count implements Store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
