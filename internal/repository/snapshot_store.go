package repository

import "context"

// SnapshotStore is a durable key-value slot holding serialized cart snapshots.
// Get returns ErrNotFound when nothing was stored under key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}
