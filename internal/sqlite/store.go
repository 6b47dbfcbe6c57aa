// Package sqlite implements the SQLite storage backend for linkstash.
// The database holds one row per domain key; every write replaces the whole
// value, mirroring the quota-bounded host store the adapter models.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/linkstash/internal/notify"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

var _ types.Store = (*Store)(nil)

// Store implements types.Store over a SQLite database file. Writes are
// serialized on a single connection; notifications are broadcast in write
// order through the hub.
type Store struct {
	mu     sync.Mutex
	closed bool
	quota  int64
	db     *sql.DB
	hub    *notify.Hub
}

// Open creates or opens the database under config.DataDir and initializes
// the schema.
func Open(config types.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "linkstash.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writes the way the host store does.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{
		quota: config.EffectiveQuota(),
		db:    db,
		hub:   notify.NewHub(),
	}, nil
}

// Get returns the raw value for key, or ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrKeyNotFound
	}
	if err != nil {
		return nil, backendErr("get %s", key, err)
	}
	return value, nil
}

// GetBatch returns the values for the given keys; absent keys are omitted.
func (s *Store) GetBatch(ctx context.Context, keys []string) (map[string][]byte, error) {
	for _, k := range keys {
		if err := validKey(k); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		var value []byte
		err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", k).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, backendErr("get %s", k, err)
		}
		result[k] = value
	}
	return result, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) (uint64, error) {
	return s.SetBatch(ctx, map[string][]byte{key: value})
}

// SetBatch writes all entries in one transaction and broadcasts one
// notification batch under one sequence token.
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
	seq, changes, err := s.setBatchLocked(ctx, entries)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	// Broadcast after releasing the lock: a watcher callback may call back
	// into the store.
	s.hub.Broadcast(types.ChangeSet{Seq: seq, Changes: changes})
	return seq, nil
}

// setBatchLocked performs the write transaction. The caller must hold s.mu.
func (s *Store) setBatchLocked(ctx context.Context, entries map[string][]byte) (uint64, map[string]types.Change, error) {
	if s.closed {
		return 0, nil, types.ErrStoreClosed
	}

	if err := s.checkQuota(ctx, entries); err != nil {
		return 0, nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, backendErr("begin set", "", err)
	}
	defer tx.Rollback()

	seq := s.hub.NextSeq()
	changes := make(map[string]types.Change, len(entries))
	for k, v := range entries {
		var old []byte
		err := tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", k).Scan(&old)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, nil, backendErr("read old %s", k, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO kv (key, value, version) VALUES (?, ?, ?) "+
				"ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version",
			k, v, int64(seq),
		)
		if err != nil {
			return 0, nil, backendErr("write %s", k, err)
		}
		changes[k] = types.Change{Old: old, New: v}
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, backendErr("commit set", "", err)
	}
	return seq, changes, nil
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
	seq, changes, err := s.removeBatchLocked(ctx, keys)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.hub.Broadcast(types.ChangeSet{Seq: seq, Changes: changes})
	return seq, nil
}

// removeBatchLocked performs the delete transaction. The caller must hold s.mu.
func (s *Store) removeBatchLocked(ctx context.Context, keys []string) (uint64, map[string]types.Change, error) {
	if s.closed {
		return 0, nil, types.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, backendErr("begin remove", "", err)
	}
	defer tx.Rollback()

	seq := s.hub.NextSeq()
	changes := make(map[string]types.Change)
	for _, k := range keys {
		var old []byte
		err := tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", k).Scan(&old)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, nil, backendErr("read old %s", k, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k); err != nil {
			return 0, nil, backendErr("delete %s", k, err)
		}
		changes[k] = types.Change{Old: old}
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, backendErr("commit remove", "", err)
	}
	return seq, changes, nil
}

// Version returns the current write version of key (0 if absent).
func (s *Store) Version(ctx context.Context, key string) (uint64, error) {
	if err := validKey(key); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, types.ErrStoreClosed
	}

	var version int64
	err := s.db.QueryRowContext(ctx, "SELECT version FROM kv WHERE key = ?", key).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, backendErr("version %s", key, err)
	}
	return uint64(version), nil
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
	seq, old, err := s.compareAndSetLocked(ctx, key, value, expect)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.hub.Broadcast(types.ChangeSet{
		Seq:     seq,
		Changes: map[string]types.Change{key: {Old: old, New: value}},
	})
	return seq, nil
}

// compareAndSetLocked performs the guarded write. The caller must hold s.mu.
func (s *Store) compareAndSetLocked(ctx context.Context, key string, value []byte, expect uint64) (uint64, []byte, error) {
	if s.closed {
		return 0, nil, types.ErrStoreClosed
	}

	var old []byte
	var current int64
	err := s.db.QueryRowContext(ctx, "SELECT value, version FROM kv WHERE key = ?", key).Scan(&old, &current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, nil, backendErr("read %s", key, err)
	}
	if uint64(current) != expect {
		return 0, nil, types.ErrCASConflict
	}

	if err := s.checkQuota(ctx, map[string][]byte{key: value}); err != nil {
		return 0, nil, err
	}

	seq := s.hub.NextSeq()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value, version) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version",
		key, value, int64(seq),
	)
	if err != nil {
		return 0, nil, backendErr("write %s", key, err)
	}
	return seq, old, nil
}

// Watch registers cb for change notifications.
func (s *Store) Watch(cb func(types.ChangeSet)) (cancel func()) {
	return s.hub.Watch(cb)
}

// Close closes the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		s.db = nil
	}
	return nil
}

// checkQuota rejects the write if applying entries would push total stored
// bytes past the quota. The caller must hold s.mu.
func (s *Store) checkQuota(ctx context.Context, entries map[string][]byte) error {
	var used int64
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv").Scan(&used)
	if err != nil {
		return backendErr("quota check", "", err)
	}

	delta := int64(0)
	for k, v := range entries {
		delta += int64(len(v))
		var oldLen int64
		err := s.db.QueryRowContext(ctx, "SELECT LENGTH(value) FROM kv WHERE key = ?", k).Scan(&oldLen)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return backendErr("quota check %s", k, err)
		}
		delta -= oldLen
	}
	if used+delta > s.quota {
		return types.ErrQuotaExceeded
	}
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

// backendErr wraps an opaque driver failure with context and the
// ErrBackendError sentinel.
func backendErr(format, key string, err error) error {
	op := format
	if key != "" {
		op = fmt.Sprintf(format, key)
	}
	return fmt.Errorf("%s: %w: %v", op, types.ErrBackendError, err)
}
