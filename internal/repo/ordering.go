package repo

import (
	"sort"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// SortCollections orders a collection list for display. The inbox is always
// first regardless of its Order value. Until the user reorders explicitly,
// the rest sort newest-first by creation time; after the first reorder the
// Order field is authoritative.
func SortCollections(cols []types.Collection, manual bool) []types.Collection {
	out := make([]types.Collection, len(cols))
	copy(out, cols)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ID == types.InboxCollectionID {
			return out[j].ID != types.InboxCollectionID
		}
		if out[j].ID == types.InboxCollectionID {
			return false
		}
		if manual {
			if out[i].Order != out[j].Order {
				return out[i].Order < out[j].Order
			}
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// SortWorkspaces is the workspace equivalent; the default workspace pins to
// the front.
func SortWorkspaces(wss []types.Workspace, manual bool) []types.Workspace {
	out := make([]types.Workspace, len(wss))
	copy(out, wss)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ID == types.DefaultWorkspaceID {
			return out[j].ID != types.DefaultWorkspaceID
		}
		if out[j].ID == types.DefaultWorkspaceID {
			return false
		}
		if manual {
			if out[i].Order != out[j].Order {
				return out[i].Order < out[j].Order
			}
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// NextCollectionOrder returns max(existing orders)+1 for a newly created collection.
func NextCollectionOrder(cols []types.Collection) int {
	max := -1
	for _, c := range cols {
		if c.Order > max {
			max = c.Order
		}
	}
	return max + 1
}

// NextWorkspaceOrder returns max(existing orders)+1 for a new workspace.
func NextWorkspaceOrder(wss []types.Workspace) int {
	max := -1
	for _, w := range wss {
		if w.Order > max {
			max = w.Order
		}
	}
	return max + 1
}
