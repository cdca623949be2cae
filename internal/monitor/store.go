package monitor

import (
	"sync"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Store is the in-memory status store for one pass. It is safe for
// concurrent use; every mutation goes through the same lock.
type Store struct {
	mu   sync.RWMutex
	snap domain.Snapshot
}

func NewStore(s domain.Snapshot) *Store {
	return &Store{snap: s.Clone()}
}

func (s *Store) Get(id string, k domain.CheckKind) (domain.StatusRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.snap.Targets[id][k]
	return rec, ok
}

// Swap stores rec and returns the record it replaced, if any.
func (s *Store) Swap(id string, k domain.CheckKind, rec domain.StatusRecord) (domain.StatusRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := s.snap.Targets[id]
	if kinds == nil {
		kinds = make(map[domain.CheckKind]domain.StatusRecord, 2)
		s.snap.Targets[id] = kinds
	}
	prior, ok := kinds[k]
	kinds[k] = rec
	return prior, ok
}

// Touch records when the last pass ran.
func (s *Store) Touch(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Meta.LastCheck = at
}

// Snapshot returns a copy suitable for persisting.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Targets)
}
