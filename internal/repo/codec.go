// Package repo implements the entity repositories over the Store adapter:
// CRUD per entity kind, cascade-safe deletion, and the whole-array
// read-modify-write cycle every mutation goes through. The store only
// supports whole-value keys, so no method patches a single element in
// place.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// casRetries bounds the read-modify-write retry loop when a concurrent
// writer bumps the key version between our read and our write.
const casRetries = 5

// readList decodes the JSON array stored under key. An absent key decodes
// as an empty list. The version returned is read before the value, so a
// CompareAndSet against it can never silently drop an interleaved write.
func readList[T any](ctx context.Context, s types.Store, key string) ([]T, uint64, error) {
	version, err := s.Version(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s version: %w", key, err)
	}

	raw, err := s.Get(ctx, key)
	if errors.Is(err, types.ErrKeyNotFound) {
		return nil, version, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", key, err)
	}
	return items, version, nil
}

// writeList encodes items and overwrites key, returning the write's
// sequence token.
func writeList[T any](ctx context.Context, s types.Store, key string, items []T) (uint64, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encoding %s: %w", key, err)
	}
	seq, err := s.Set(ctx, key, raw)
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", key, err)
	}
	return seq, nil
}

// mutateList runs one read-modify-write cycle under compare-and-swap,
// retrying when a concurrent writer conflicts. mutate receives the current
// list and returns the replacement; returning an error aborts without
// writing.
func mutateList[T any](ctx context.Context, s types.Store, key string, mutate func([]T) ([]T, error)) (uint64, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		items, version, err := readList[T](ctx, s, key)
		if err != nil {
			return 0, err
		}

		next, err := mutate(items)
		if err != nil {
			return 0, err
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return 0, fmt.Errorf("encoding %s: %w", key, err)
		}

		seq, err := s.CompareAndSet(ctx, key, raw, version)
		if err == nil {
			return seq, nil
		}
		if !errors.Is(err, types.ErrCASConflict) {
			return 0, fmt.Errorf("writing %s: %w", key, err)
		}
		lastErr = err
	}
	return 0, fmt.Errorf("writing %s after %d attempts: %w", key, casRetries, lastErr)
}

// newID generates a UUID v7 entity ID, falling back to v4 when the clock
// source fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
