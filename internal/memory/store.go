// Package memory implements an in-memory Store with the same semantics as
// the SQLite backend: whole-value keys, quota enforcement, per-key write
// versions, and change notification to every watcher.
package memory

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/linkstash/internal/notify"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

var _ types.Store = (*Store)(nil)

type entry struct {
	value   []byte
	version uint64
}

// Store holds all keys in process memory. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	closed bool
	quota  int64
	used   int64
	data   map[string]entry
	hub    *notify.Hub
}

// NewStore creates an empty store with the configured quota.
func NewStore(config types.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		quota: config.EffectiveQuota(),
		data:  make(map[string]entry),
		hub:   notify.NewHub(),
	}, nil
}

// Get returns the raw value for key, or ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	e, ok := s.data[key]
	if !ok {
		return nil, types.ErrKeyNotFound
	}
	return cloneBytes(e.value), nil
}

// GetBatch returns the values for the given keys; absent keys are omitted.
func (s *Store) GetBatch(ctx context.Context, keys []string) (map[string][]byte, error) {
	for _, k := range keys {
		if err := validKey(k); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if e, ok := s.data[k]; ok {
			result[k] = cloneBytes(e.value)
		}
	}
	return result, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) (uint64, error) {
	return s.SetBatch(ctx, map[string][]byte{key: value})
}

// SetBatch writes all entries under one sequence token and broadcasts one
// notification batch.
func (s *Store) SetBatch(ctx context.Context, entries map[string][]byte) (uint64, error) {
	for k, v := range entries {
		if err := validKey(k); err != nil {
			return 0, err
		}
		if err := validValue(v); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, types.ErrStoreClosed
	}

	// Quota check before any key is touched; a rejected batch must not
	// partially apply.
	delta := int64(0)
	for k, v := range entries {
		delta += int64(len(v))
		if e, ok := s.data[k]; ok {
			delta -= int64(len(e.value))
		}
	}
	if s.used+delta > s.quota {
		s.mu.Unlock()
		return 0, types.ErrQuotaExceeded
	}

	seq := s.hub.NextSeq()
	changes := make(map[string]types.Change, len(entries))
	for k, v := range entries {
		var old []byte
		if e, ok := s.data[k]; ok {
			old = e.value
		}
		changes[k] = types.Change{Old: old, New: cloneBytes(v)}
		s.data[k] = entry{value: cloneBytes(v), version: seq}
	}
	s.used += delta
	s.mu.Unlock()

	s.hub.Broadcast(types.ChangeSet{Seq: seq, Changes: changes})
	return seq, nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) (uint64, error) {
	return s.RemoveBatch(ctx, []string{key})
}

// RemoveBatch deletes all given keys as one notification batch.
func (s *Store) RemoveBatch(ctx context.Context, keys []string) (uint64, error) {
	for _, k := range keys {
		if err := validKey(k); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, types.ErrStoreClosed
	}

	seq := s.hub.NextSeq()
	changes := make(map[string]types.Change)
	for _, k := range keys {
		e, ok := s.data[k]
		if !ok {
			continue
		}
		changes[k] = types.Change{Old: e.value}
		s.used -= int64(len(e.value))
		delete(s.data, k)
	}
	s.mu.Unlock()

	s.hub.Broadcast(types.ChangeSet{Seq: seq, Changes: changes})
	return seq, nil
}

// Version returns the current write version of key (0 if absent).
func (s *Store) Version(ctx context.Context, key string) (uint64, error) {
	if err := validKey(key); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, types.ErrStoreClosed
	}
	return s.data[key].version, nil
}

// CompareAndSet writes value under key only if the key's current version
// equals expect. Returns ErrCASConflict otherwise.
func (s *Store) CompareAndSet(ctx context.Context, key string, value []byte, expect uint64) (uint64, error) {
	if err := validKey(key); err != nil {
		return 0, err
	}
	if err := validValue(value); err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, types.ErrStoreClosed
	}

	e, ok := s.data[key]
	current := uint64(0)
	if ok {
		current = e.version
	}
	if current != expect {
		s.mu.Unlock()
		return 0, types.ErrCASConflict
	}

	delta := int64(len(value)) - int64(len(e.value))
	if s.used+delta > s.quota {
		s.mu.Unlock()
		return 0, types.ErrQuotaExceeded
	}

	seq := s.hub.NextSeq()
	change := types.Change{Old: e.value, New: cloneBytes(value)}
	s.data[key] = entry{value: cloneBytes(value), version: seq}
	s.used += delta
	s.mu.Unlock()

	s.hub.Broadcast(types.ChangeSet{Seq: seq, Changes: map[string]types.Change{key: change}})
	return seq, nil
}

// Watch registers cb for change notifications.
func (s *Store) Watch(cb func(types.ChangeSet)) (cancel func()) {
	return s.hub.Watch(cb)
}

// Close marks the store closed. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func validKey(key string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	return nil
}

func validValue(value []byte) error {
	if value == nil {
		return types.ErrInvalidValue
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
