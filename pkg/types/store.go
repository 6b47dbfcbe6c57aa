package types

import (
	"context"
	"errors"
)

// Domain keys. Each holds one ordered JSON sequence (or one record, for
// settings); every mutation rewrites the whole value. Per-element patching
// is deliberately unsupported.
const (
	KeyLinks       = "links"
	KeyCollections = "collections"
	KeyWorkspaces  = "workspaces"
	KeySettings    = "settings"
)

// Store operation errors.
var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidKey    = errors.New("invalid storage key")
	ErrInvalidValue  = errors.New("invalid storage value")
	ErrBackendError  = errors.New("storage backend error")
	ErrKeyNotFound   = errors.New("key not found")
	ErrCASConflict   = errors.New("write version conflict")
	ErrStoreClosed   = errors.New("store is closed")
)

// Entity and business-rule errors.
var (
	ErrNotFound             = errors.New("entity not found")
	ErrInboxDeleteForbidden = errors.New("the Inbox collection cannot be deleted")
	ErrDefaultWorkspace     = errors.New("the default workspace cannot be renamed or deleted")
	ErrDuplicateName        = errors.New("name is already in use")
	ErrNameEmpty            = errors.New("name must not be empty")
	ErrNameTooLong          = errors.New("name is too long")
	ErrDescriptionTooLong   = errors.New("description is too long")
	ErrInvalidColor         = errors.New("color must be a hex value")
	ErrWorkspaceLimit       = errors.New("workspace limit reached")
)

// Tab provider errors.
var (
	ErrNoActiveTab = errors.New("no active tab")
	ErrTabHasNoURL = errors.New("tab has no URL")
)

// Change describes one key's transition within a write. Old is nil when the
// key was absent, New is nil when the key was removed. Values are the raw
// JSON-encoded whole-key contents.
type Change struct {
	Old []byte
	New []byte
}

// ChangeSet is one write's worth of key transitions, delivered to every
// watcher including the writer. Seq is the store's monotonically increasing
// write sequence token; a watcher that issued the write sees its own Seq
// echoed back and can suppress the local echo.
type ChangeSet struct {
	Seq     uint64
	Changes map[string]Change
}

// Store is the persistent key-value adapter. All methods are safe for
// concurrent use. Writes return the sequence token assigned to the write.
type Store interface {
	// Get returns the raw value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) (uint64, error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) (uint64, error)

	// GetBatch returns the values for the given keys; absent keys are
	// omitted from the result.
	GetBatch(ctx context.Context, keys []string) (map[string][]byte, error)

	// SetBatch writes all entries as one notification batch.
	SetBatch(ctx context.Context, entries map[string][]byte) (uint64, error)

	// RemoveBatch deletes all given keys as one notification batch.
	RemoveBatch(ctx context.Context, keys []string) (uint64, error)

	// Version returns the current write version of key (0 if absent).
	Version(ctx context.Context, key string) (uint64, error)

	// CompareAndSet writes value under key only if the key's current
	// version equals expect. Returns ErrCASConflict otherwise.
	CompareAndSet(ctx context.Context, key string, value []byte, expect uint64) (uint64, error)

	// Watch registers cb for change notifications. Every write to the
	// store is delivered to every registered watcher, the writer
	// included. The returned func unregisters the watcher.
	Watch(cb func(ChangeSet)) (cancel func())

	// Close releases backend resources. Idempotent.
	Close() error
}
