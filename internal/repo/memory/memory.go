package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.StateRepo = (*Store)(nil)

// Store keeps the snapshot in process memory; state does not survive a restart.
type Store struct {
	mu    sync.RWMutex
	snap  domain.Snapshot
	saves int
}

func New() *Store {
	return &Store{snap: domain.NewSnapshot()}
}

// NewWith seeds the store as if s had been saved before.
func NewWith(s domain.Snapshot) *Store {
	return &Store{snap: s.Clone()}
}

func (m *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone(), nil
}

func (m *Store) Save(ctx context.Context, s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s.Clone()
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *Store) Close() error { return nil }
