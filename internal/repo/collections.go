package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/linkstash/internal/validate"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Collections is the collection repository. The inbox collection is
// guaranteed to exist after EnsureDefaults and can never be deleted.
type Collections struct {
	store types.Store
	log   *slog.Logger
}

// NewCollections returns a collection repository over store.
func NewCollections(store types.Store, log *slog.Logger) *Collections {
	if log == nil {
		log = slog.Default()
	}
	return &Collections{store: store, log: log}
}

// List returns all collections in display order: the inbox first, then
// newest-first by creation time until the user has reordered explicitly,
// after which the Order field is authoritative.
func (r *Collections) List(ctx context.Context) ([]types.Collection, error) {
	cols, _, err := readList[types.Collection](ctx, r.store, types.KeyCollections)
	if err != nil {
		return nil, err
	}
	settings, err := readSettings(ctx, r.store)
	if err != nil {
		return nil, err
	}
	return SortCollections(cols, settings.CollectionsReordered), nil
}

// EnsureDefaults makes the reserved entities exist: the inbox collection,
// and the default workspace the first time the workspaces key is observed
// absent. On that first observation every pre-existing collection is
// labeled with the default workspace in the same write. Idempotent.
func (r *Collections) EnsureDefaults(ctx context.Context) error {
	cols, _, err := readList[types.Collection](ctx, r.store, types.KeyCollections)
	if err != nil {
		return err
	}

	hasInbox := false
	for _, c := range cols {
		if c.ID == types.InboxCollectionID {
			hasInbox = true
			break
		}
	}

	_, wsErr := r.store.Get(ctx, types.KeyWorkspaces)
	needWorkspaces := errors.Is(wsErr, types.ErrKeyNotFound)
	if wsErr != nil && !needWorkspaces {
		return fmt.Errorf("reading workspaces: %w", wsErr)
	}

	if hasInbox && !needWorkspaces {
		return nil
	}

	entries := make(map[string][]byte)

	if !hasInbox {
		cols = append([]types.Collection{types.NewInboxCollection()}, cols...)
	}
	if needWorkspaces {
		// One-shot migration: introduce the default workspace and claim
		// every collection that predates workspaces.
		for i := range cols {
			if cols[i].WorkspaceID == "" {
				cols[i].WorkspaceID = types.DefaultWorkspaceID
			}
		}
		wsRaw, err := json.Marshal([]types.Workspace{types.NewDefaultWorkspace()})
		if err != nil {
			return fmt.Errorf("encoding workspaces: %w", err)
		}
		entries[types.KeyWorkspaces] = wsRaw
		r.log.DebugContext(ctx, "migrating collections to default workspace", "count", len(cols))
	}

	colsRaw, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("encoding collections: %w", err)
	}
	entries[types.KeyCollections] = colsRaw

	if _, err := r.store.SetBatch(ctx, entries); err != nil {
		return fmt.Errorf("writing defaults: %w", err)
	}
	return nil
}

// Build assembles a new collection with a generated ID and timestamp; an
// empty workspace lands in the default workspace. Validation happens on
// Insert.
func (r *Collections) Build(name, color, workspaceID string) types.Collection {
	col := types.Collection{
		ID:          newID(),
		Name:        strings.TrimSpace(name),
		CreatedAt:   time.Now().UTC(),
		WorkspaceID: workspaceID,
		Color:       color,
	}
	if col.WorkspaceID == "" {
		col.WorkspaceID = types.DefaultWorkspaceID
	}
	return col
}

// Insert validates col against the persisted list and appends it, assigning
// Order past the current maximum. Returns the stored entity.
func (r *Collections) Insert(ctx context.Context, col types.Collection) (types.Collection, error) {
	_, err := mutateList(ctx, r.store, types.KeyCollections, func(cols []types.Collection) ([]types.Collection, error) {
		if res := validate.CollectionName(col.Name, cols, ""); !res.Valid {
			return nil, res.Err
		}
		if res := validate.HexColor(col.Color, false); !res.Valid {
			return nil, res.Err
		}
		col.Order = NextCollectionOrder(cols)
		return append(cols, col), nil
	})
	if err != nil {
		return types.Collection{}, err
	}
	return col, nil
}

// Create builds and inserts a new collection in one call.
func (r *Collections) Create(ctx context.Context, name, color, workspaceID string) (types.Collection, error) {
	return r.Insert(ctx, r.Build(name, color, workspaceID))
}

// Rename changes a collection's name after validating it against every
// sibling except the collection itself.
func (r *Collections) Rename(ctx context.Context, id, name string) error {
	trimmed := strings.TrimSpace(name)
	_, err := mutateList(ctx, r.store, types.KeyCollections, func(cols []types.Collection) ([]types.Collection, error) {
		if res := validate.CollectionName(trimmed, cols, id); !res.Valid {
			return nil, res.Err
		}
		for i := range cols {
			if cols[i].ID == id {
				cols[i].Name = trimmed
				return cols, nil
			}
		}
		return nil, fmt.Errorf("collection %s: %w", id, types.ErrNotFound)
	})
	return err
}

// Delete removes a collection and relocates its links to the inbox. The
// inbox itself is undeletable; an unknown ID mutates nothing. The two
// writes are guarded by a snapshot of both keys: any failure mid-sequence
// restores links and collections to their prior contents.
func (r *Collections) Delete(ctx context.Context, id string) (movedCount int, err error) {
	if res := validate.CollectionDeletable(id); !res.Valid {
		return 0, res.Err
	}

	cols, _, err := readList[types.Collection](ctx, r.store, types.KeyCollections)
	if err != nil {
		return 0, err
	}
	found := false
	for _, c := range cols {
		if c.ID == id {
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("collection %s: %w", id, types.ErrNotFound)
	}

	err = withSnapshot(ctx, r.store, []string{types.KeyLinks, types.KeyCollections}, func() error {
		links, _, err := readList[types.Link](ctx, r.store, types.KeyLinks)
		if err != nil {
			return err
		}
		for i := range links {
			if links[i].CollectionID == id {
				links[i].CollectionID = types.InboxCollectionID
				movedCount++
			}
		}
		if _, err := writeList(ctx, r.store, types.KeyLinks, links); err != nil {
			return err
		}

		remaining := make([]types.Collection, 0, len(cols))
		for _, c := range cols {
			if c.ID != id {
				remaining = append(remaining, c)
			}
		}
		if _, err := writeList(ctx, r.store, types.KeyCollections, remaining); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		r.log.WarnContext(ctx, "collection delete rolled back", "collection", id, "error", err)
		return 0, fmt.Errorf("deleting collection: %w", err)
	}
	return movedCount, nil
}

// Reorder rewrites every collection's Order to its index in ordered and
// marks collection ordering as manual from here on. IDs absent from ordered
// keep their relative position after the ordered ones.
func (r *Collections) Reorder(ctx context.Context, orderedIDs []string) error {
	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}

	cols, _, err := readList[types.Collection](ctx, r.store, types.KeyCollections)
	if err != nil {
		return err
	}
	next := len(orderedIDs)
	for i := range cols {
		if p, ok := position[cols[i].ID]; ok {
			cols[i].Order = p
		} else {
			cols[i].Order = next
			next++
		}
	}

	settings, err := readSettings(ctx, r.store)
	if err != nil {
		return err
	}
	settings.CollectionsReordered = true

	colsRaw, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("encoding collections: %w", err)
	}
	settingsRaw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := r.store.SetBatch(ctx, map[string][]byte{
		types.KeyCollections: colsRaw,
		types.KeySettings:    settingsRaw,
	}); err != nil {
		return fmt.Errorf("writing reorder: %w", err)
	}
	return nil
}
