package repo

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// snapshot captures the raw values of a set of keys so a failed composite
// operation can put the store back exactly as it was. Keys absent at
// snapshot time are removed again on restore.
type snapshot struct {
	store   types.Store
	present map[string][]byte
	absent  []string
}

// takeSnapshot reads the current raw values of keys in one batch.
func takeSnapshot(ctx context.Context, s types.Store, keys ...string) (*snapshot, error) {
	values, err := s.GetBatch(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("snapshotting %v: %w", keys, err)
	}

	snap := &snapshot{store: s, present: values}
	for _, k := range keys {
		if _, ok := values[k]; !ok {
			snap.absent = append(snap.absent, k)
		}
	}
	return snap, nil
}

// restore writes every snapshotted key back to its captured state.
func (sn *snapshot) restore(ctx context.Context) error {
	if len(sn.present) > 0 {
		if _, err := sn.store.SetBatch(ctx, sn.present); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
	}
	if len(sn.absent) > 0 {
		if _, err := sn.store.RemoveBatch(ctx, sn.absent); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
	}
	return nil
}

// withSnapshot snapshots keys, runs fn, and restores all keys when fn
// fails. The restore error, if any, is secondary to fn's own error.
func withSnapshot(ctx context.Context, s types.Store, keys []string, fn func() error) error {
	snap, err := takeSnapshot(ctx, s, keys...)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rerr := snap.restore(ctx); rerr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rerr)
		}
		return err
	}
	return nil
}
