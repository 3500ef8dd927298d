package view

import "sync"

// Store owns the current entry dataset. Replacement is all-or-nothing: a
// producer hands over a complete slice and Replace swaps it in under the
// lock, so readers observe either the old dataset or the new one, never a
// mix. The backing slice is never mutated after installation, which lets
// Snapshot return it directly without copying.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	version uint64
}

// NewStore returns an empty store at version 0.
func NewStore() *Store {
	return &Store{}
}

// Replace installs a new dataset and bumps the version. The store takes
// ownership of entries; the caller must not modify the slice afterwards.
func (s *Store) Replace(entries []Entry) {
	s.mu.Lock()
	s.entries = entries
	s.version++
	s.mu.Unlock()
}

// Snapshot returns the current dataset together with the version it belongs
// to. The returned slice stays valid and consistent even if Replace runs
// concurrently, because Replace swaps the slice header instead of touching
// the old backing array.
func (s *Store) Snapshot() ([]Entry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries, s.version
}

// Len reports the current entry count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Version reports the current dataset version. Versions increase by one per
// Replace, so a consumer can detect staleness of anything it derived.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
