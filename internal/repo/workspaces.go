package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/linkstash/internal/validate"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Workspaces is the workspace repository. The default workspace always
// exists (see Collections.EnsureDefaults), cannot be renamed or deleted,
// and receives collections orphaned by a workspace deletion.
type Workspaces struct {
	store types.Store
	log   *slog.Logger
}

// NewWorkspaces returns a workspace repository over store.
func NewWorkspaces(store types.Store, log *slog.Logger) *Workspaces {
	if log == nil {
		log = slog.Default()
	}
	return &Workspaces{store: store, log: log}
}

// WorkspaceInput is the caller-supplied part of a new workspace.
type WorkspaceInput struct {
	Name        string
	Description string
	Color       string
}

// List returns all workspaces in display order, default first.
func (r *Workspaces) List(ctx context.Context) ([]types.Workspace, error) {
	wss, _, err := readList[types.Workspace](ctx, r.store, types.KeyWorkspaces)
	if err != nil {
		return nil, err
	}
	settings, err := readSettings(ctx, r.store)
	if err != nil {
		return nil, err
	}
	return SortWorkspaces(wss, settings.WorkspacesReordered), nil
}

// Build assembles a new workspace with a generated ID and timestamp.
// Validation happens on Insert.
func (r *Workspaces) Build(input WorkspaceInput) types.Workspace {
	return types.Workspace{
		ID:          newID(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Color:       input.Color,
		CreatedAt:   time.Now().UTC(),
	}
}

// Insert validates ws against the persisted list and appends it. Rejections:
// empty or overlong name, case-insensitive duplicate, overlong description,
// missing or malformed color, count past the limit. Nothing is persisted on
// any rejection.
func (r *Workspaces) Insert(ctx context.Context, ws types.Workspace) (types.Workspace, error) {
	_, err := mutateList(ctx, r.store, types.KeyWorkspaces, func(wss []types.Workspace) ([]types.Workspace, error) {
		if res := validate.WorkspaceCount(wss); !res.Valid {
			return nil, res.Err
		}
		if res := validate.WorkspaceName(ws.Name, wss, ""); !res.Valid {
			return nil, res.Err
		}
		if res := validate.WorkspaceDescription(ws.Description); !res.Valid {
			return nil, res.Err
		}
		if res := validate.HexColor(ws.Color, true); !res.Valid {
			return nil, res.Err
		}
		ws.Order = NextWorkspaceOrder(wss)
		return append(wss, ws), nil
	})
	if err != nil {
		return types.Workspace{}, err
	}
	return ws, nil
}

// Create builds and inserts a new workspace in one call.
func (r *Workspaces) Create(ctx context.Context, input WorkspaceInput) (types.Workspace, error) {
	return r.Insert(ctx, r.Build(input))
}

// Rename changes a workspace's name. The default workspace is unrenameable.
func (r *Workspaces) Rename(ctx context.Context, id, name string) error {
	if res := validate.WorkspaceMutable(id); !res.Valid {
		return res.Err
	}

	trimmed := strings.TrimSpace(name)
	_, err := mutateList(ctx, r.store, types.KeyWorkspaces, func(wss []types.Workspace) ([]types.Workspace, error) {
		if res := validate.WorkspaceName(trimmed, wss, id); !res.Valid {
			return nil, res.Err
		}
		for i := range wss {
			if wss[i].ID == id {
				wss[i].Name = trimmed
				return wss, nil
			}
		}
		return nil, fmt.Errorf("workspace %s: %w", id, types.ErrNotFound)
	})
	return err
}

// Delete removes a workspace and relabels its collections to the default
// workspace. Collections are never deleted by this path, which is why it
// carries no snapshot rollback: a failure between the two writes leaves
// every collection intact, at worst already relabeled.
func (r *Workspaces) Delete(ctx context.Context, id string) (movedCount int, err error) {
	if res := validate.WorkspaceMutable(id); !res.Valid {
		return 0, res.Err
	}

	wss, _, err := readList[types.Workspace](ctx, r.store, types.KeyWorkspaces)
	if err != nil {
		return 0, err
	}
	found := false
	for _, w := range wss {
		if w.ID == id {
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("workspace %s: %w", id, types.ErrNotFound)
	}

	_, err = mutateList(ctx, r.store, types.KeyCollections, func(cols []types.Collection) ([]types.Collection, error) {
		for i := range cols {
			if cols[i].WorkspaceID == id {
				cols[i].WorkspaceID = types.DefaultWorkspaceID
				movedCount++
			}
		}
		return cols, nil
	})
	if err != nil {
		return 0, fmt.Errorf("reassigning collections: %w", err)
	}

	_, err = mutateList(ctx, r.store, types.KeyWorkspaces, func(wss []types.Workspace) ([]types.Workspace, error) {
		next := make([]types.Workspace, 0, len(wss))
		for _, w := range wss {
			if w.ID != id {
				next = append(next, w)
			}
		}
		return next, nil
	})
	if err != nil {
		r.log.WarnContext(ctx, "workspace removed from collections but not from workspaces", "workspace", id, "error", err)
		return 0, fmt.Errorf("removing workspace: %w", err)
	}
	return movedCount, nil
}

// Reorder rewrites every workspace's Order to its index in ordered and
// marks workspace ordering as manual from here on.
func (r *Workspaces) Reorder(ctx context.Context, orderedIDs []string) error {
	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}

	wss, _, err := readList[types.Workspace](ctx, r.store, types.KeyWorkspaces)
	if err != nil {
		return err
	}
	next := len(orderedIDs)
	for i := range wss {
		if p, ok := position[wss[i].ID]; ok {
			wss[i].Order = p
		} else {
			wss[i].Order = next
			next++
		}
	}

	settings, err := readSettings(ctx, r.store)
	if err != nil {
		return err
	}
	settings.WorkspacesReordered = true

	wssRaw, err := json.Marshal(wss)
	if err != nil {
		return fmt.Errorf("encoding workspaces: %w", err)
	}
	settingsRaw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := r.store.SetBatch(ctx, map[string][]byte{
		types.KeyWorkspaces: wssRaw,
		types.KeySettings:   settingsRaw,
	}); err != nil {
		return fmt.Errorf("writing reorder: %w", err)
	}
	return nil
}
