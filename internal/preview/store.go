// Package preview holds converted output bytes for download, keyed by an
// opaque handle ID. It is the server-side analog of a browser object URL:
// every handle created must be released exactly once, either explicitly or
// by the expiry janitor, or the bytes stay resident for the process
// lifetime.
package preview

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an unreleased preview survives before the
// janitor reclaims it.
const DefaultTTL = 10 * time.Minute

// Entry is the stored output file.
type Entry struct {
	Bytes     []byte
	Filename  string
	MIMEType  string
	CreatedAt time.Time
}

// Handle is a scoped reference to a stored entry. Release is guarded so a
// double release is observable: only the first call reclaims the entry.
type Handle struct {
	id       string
	store    *Store
	released atomic.Bool
}

// ID returns the opaque identifier used to address the entry.
func (h *Handle) ID() string {
	return h.id
}

// Release removes the entry from the store. It returns true only on the
// call that actually reclaimed the entry; callers treating a false return
// as success have a pairing bug.
func (h *Handle) Release() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}
	return h.store.remove(h.id)
}

// Store is an in-memory preview store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	logger  *slog.Logger
}

// NewStore creates a store whose entries expire after ttl; a
// non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Put stores output bytes and returns the owning handle.
func (s *Store) Put(data []byte, filename, mimeType string) *Handle {
	id := uuid.NewString()

	s.mu.Lock()
	s.entries[id] = &Entry{
		Bytes:     data,
		Filename:  filename,
		MIMEType:  mimeType,
		CreatedAt: time.Now(),
	}
	s.mu.Unlock()

	return &Handle{id: id, store: s}
}

// Get returns the entry for an ID, or false if it was released or expired.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// Release removes an entry by ID, for callers that only hold the ID (the
// HTTP DELETE path). Returns false if the entry was already gone.
func (s *Store) Release(id string) bool {
	return s.remove(id)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// StartJanitor sweeps expired entries until ctx is cancelled. Expiry is
// the teardown path for clients that never release their handle.
func (s *Store) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if len(expired) > 0 && s.logger != nil {
		s.logger.Debug("expired previews reclaimed", "count", len(expired))
	}
}
