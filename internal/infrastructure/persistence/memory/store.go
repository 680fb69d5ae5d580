// Package memory implements the snapshot store and reward journal in
// process memory. Used by tests and by development mode when Redis and
// PostgreSQL are disabled in config.
package memory

import (
	"context"
	"sync"

	"github.com/finquest-app/progression-engine/internal/domain/progression"
)

// SnapshotStore implements progression.SnapshotStore in memory.
// Safe for concurrent use. Stored values are deep-copied on the way in and
// out, so callers can never alias the stored snapshot.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*progression.Snapshot
}

// NewSnapshotStore creates an empty in-memory store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]*progression.Snapshot)}
}

// Load returns a copy of the stored snapshot.
func (s *SnapshotStore) Load(_ context.Context, userID string) (*progression.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[userID]
	if !ok {
		return nil, progression.ErrNoSnapshot
	}
	return snap.Clone(), nil
}

// Save stores a copy of the snapshot.
func (s *SnapshotStore) Save(_ context.Context, userID string, snap *progression.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = snap.Clone()
	return nil
}

// Delete removes a user's snapshot.
func (s *SnapshotStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, userID)
	return nil
}

// Journal implements progression.Journal in memory.
type Journal struct {
	mu      sync.Mutex
	entries []progression.JournalEntry
}

// NewJournal creates an empty in-memory journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append records one journal entry.
func (j *Journal) Append(_ context.Context, entry progression.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

// Entries returns a copy of everything appended so far.
func (j *Journal) Entries() []progression.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]progression.JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}
