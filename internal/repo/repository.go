package repo

import (
	"context"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// StateRepo persists the whole status snapshot between passes.
// Swap in any storage adapter; the snapshot is always read and written as a unit.
type StateRepo interface {
	// Load returns an empty snapshot and a nil error when nothing was saved yet.
	Load(ctx context.Context) (domain.Snapshot, error)
	// Save overwrites the previous snapshot; a failed Save leaves it intact.
	Save(ctx context.Context, s domain.Snapshot) error
	Close() error
}
