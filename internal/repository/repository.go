package repository

import (
	"context"
	"errors"

	"cpgview/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested id
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository persists copies of a session store
type SnapshotRepository interface {
	// Write operations
	SaveSnapshot(ctx context.Context, name, query string, ds domain.GraphDataset) (*domain.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error

	// Read operations
	ListSnapshots(ctx context.Context) ([]domain.Snapshot, error)
	LoadSnapshot(ctx context.Context, id string) (*domain.Snapshot, domain.GraphDataset, error)

	// Close releases resources
	Close() error
}
