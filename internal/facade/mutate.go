package facade

import (
	"context"
	"errors"
	"strings"

	"github.com/mesh-intelligence/linkstash/internal/repo"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Every mutation here follows the same shape: take a pre-mutation snapshot
// of the mirror, apply the change optimistically, persist through the
// repository with local-echo suppression armed, and on failure put the
// mirror back exactly as it was and record one user-facing message.

// AddLink stashes a new link. A concurrent duplicate invocation (double
// click) is a no-op while the first one is in flight.
func (f *Facade) AddLink(ctx context.Context, input repo.LinkInput) (types.Link, error) {
	f.mu.Lock()
	if f.isAdding {
		f.mu.Unlock()
		return types.Link{}, nil
	}
	f.isAdding = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.isAdding = false
		f.mu.Unlock()
	}()

	link, err := f.links.Build(input)
	if err != nil {
		f.fail(userMessage(err), err)
		return types.Link{}, err
	}

	f.mu.Lock()
	prev := f.linkList
	f.linkList = append(append([]types.Link(nil), f.linkList...), link)
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err = f.links.Insert(ctx, link)
	f.endLocal()
	if err != nil {
		f.revertLinks(prev)
		f.fail(userMessage(err), err)
		return types.Link{}, err
	}
	return link, nil
}

// RemoveLink deletes a link. Repeated invocation for the same ID while the
// first is in flight is a no-op.
func (f *Facade) RemoveLink(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.isRemoving[id] {
		f.mu.Unlock()
		return nil
	}
	f.isRemoving[id] = true
	prev := f.linkList
	next := make([]types.Link, 0, len(f.linkList))
	for _, l := range f.linkList {
		if l.ID != id {
			next = append(next, l)
		}
	}
	f.linkList = next
	f.mu.Unlock()
	f.notify()
	defer func() {
		f.mu.Lock()
		delete(f.isRemoving, id)
		f.mu.Unlock()
	}()

	f.beginLocal()
	err := f.links.Remove(ctx, id)
	f.endLocal()
	if err != nil {
		f.revertLinks(prev)
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

// MoveLink relocates a link to another collection.
func (f *Facade) MoveLink(ctx context.Context, id, toCollectionID string) error {
	f.mu.Lock()
	prev := f.linkList
	next := append([]types.Link(nil), f.linkList...)
	for i := range next {
		if next[i].ID == id {
			next[i].CollectionID = toCollectionID
		}
	}
	f.linkList = next
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err := f.links.Move(ctx, id, toCollectionID)
	f.endLocal()
	if err != nil {
		f.revertLinks(prev)
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

// AddCollection creates a named bucket. The mirror shows the provisional
// entry immediately; the persisted entity (with its assigned order)
// replaces it on success.
func (f *Facade) AddCollection(ctx context.Context, name, color, workspaceID string) (types.Collection, error) {
	col := f.cols.Build(name, color, workspaceID)

	f.mu.Lock()
	prev := f.colList
	col.Order = repo.NextCollectionOrder(f.colList)
	f.colList = repo.SortCollections(append(append([]types.Collection(nil), f.colList...), col), f.cfg.CollectionsReordered)
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	stored, err := f.cols.Insert(ctx, col)
	f.endLocal()
	if err != nil {
		f.revertCollections(prev)
		f.fail(userMessage(err), err)
		return types.Collection{}, err
	}

	// The persisted Order may differ from the provisional one when a peer
	// appended concurrently.
	f.mu.Lock()
	next := append([]types.Collection(nil), f.colList...)
	for i := range next {
		if next[i].ID == stored.ID {
			next[i] = stored
		}
	}
	f.colList = repo.SortCollections(next, f.cfg.CollectionsReordered)
	f.mu.Unlock()
	f.notify()
	return stored, nil
}

// RemoveCollection deletes a bucket and relocates its links to the inbox.
// Returns the number of links moved. Deleting the inbox is rejected before
// anything changes, in the store or the mirror.
func (f *Facade) RemoveCollection(ctx context.Context, id string) (int, error) {
	if id == types.InboxCollectionID {
		err := types.ErrInboxDeleteForbidden
		f.fail(userMessage(err), err)
		return 0, err
	}

	f.mu.Lock()
	if f.isRemoving[id] {
		f.mu.Unlock()
		return 0, nil
	}
	f.isRemoving[id] = true
	prevLinks := f.linkList
	prevCols := f.colList

	nextCols := make([]types.Collection, 0, len(f.colList))
	for _, c := range f.colList {
		if c.ID != id {
			nextCols = append(nextCols, c)
		}
	}
	nextLinks := append([]types.Link(nil), f.linkList...)
	for i := range nextLinks {
		if nextLinks[i].CollectionID == id {
			nextLinks[i].CollectionID = types.InboxCollectionID
		}
	}
	f.colList = nextCols
	f.linkList = nextLinks
	f.mu.Unlock()
	f.notify()
	defer func() {
		f.mu.Lock()
		delete(f.isRemoving, id)
		f.mu.Unlock()
	}()

	f.beginLocal()
	moved, err := f.cols.Delete(ctx, id)
	f.endLocal()
	if err != nil {
		f.mu.Lock()
		f.linkList = prevLinks
		f.colList = prevCols
		f.mu.Unlock()
		f.fail(userMessage(err), err)
		return 0, err
	}
	return moved, nil
}

// RenameCollection changes a bucket's name.
func (f *Facade) RenameCollection(ctx context.Context, id, name string) error {
	f.mu.Lock()
	prev := f.colList
	next := append([]types.Collection(nil), f.colList...)
	for i := range next {
		if next[i].ID == id {
			next[i].Name = name
		}
	}
	f.colList = next
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err := f.cols.Rename(ctx, id, name)
	f.endLocal()
	if err != nil {
		f.revertCollections(prev)
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

// ReorderCollections makes the given ID order authoritative.
func (f *Facade) ReorderCollections(ctx context.Context, orderedIDs []string) error {
	f.mu.Lock()
	prevCols := f.colList
	prevCfg := f.cfg
	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}
	next := append([]types.Collection(nil), f.colList...)
	for i := range next {
		if p, ok := position[next[i].ID]; ok {
			next[i].Order = p
		}
	}
	f.cfg.CollectionsReordered = true
	f.colList = repo.SortCollections(next, true)
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err := f.cols.Reorder(ctx, orderedIDs)
	f.endLocal()
	if err != nil {
		f.mu.Lock()
		f.colList = prevCols
		f.cfg = prevCfg
		f.mu.Unlock()
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

// AddWorkspace creates a workspace. As with AddCollection, the provisional
// entry is visible in the mirror before the write lands.
func (f *Facade) AddWorkspace(ctx context.Context, input repo.WorkspaceInput) (types.Workspace, error) {
	ws := f.wss.Build(input)

	f.mu.Lock()
	prev := f.wsList
	ws.Order = repo.NextWorkspaceOrder(f.wsList)
	f.wsList = repo.SortWorkspaces(append(append([]types.Workspace(nil), f.wsList...), ws), f.cfg.WorkspacesReordered)
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	stored, err := f.wss.Insert(ctx, ws)
	f.endLocal()
	if err != nil {
		f.revertWorkspaces(prev)
		f.fail(userMessage(err), err)
		return types.Workspace{}, err
	}

	f.mu.Lock()
	next := append([]types.Workspace(nil), f.wsList...)
	for i := range next {
		if next[i].ID == stored.ID {
			next[i] = stored
		}
	}
	f.wsList = repo.SortWorkspaces(next, f.cfg.WorkspacesReordered)
	f.mu.Unlock()
	f.notify()
	return stored, nil
}

// RemoveWorkspace deletes a workspace, relabeling its collections to the
// default workspace. Returns the number of collections moved.
func (f *Facade) RemoveWorkspace(ctx context.Context, id string) (int, error) {
	if id == types.DefaultWorkspaceID {
		err := types.ErrDefaultWorkspace
		f.fail(userMessage(err), err)
		return 0, err
	}

	f.mu.Lock()
	if f.isRemoving[id] {
		f.mu.Unlock()
		return 0, nil
	}
	f.isRemoving[id] = true
	prevWss := f.wsList
	prevCols := f.colList

	nextWss := make([]types.Workspace, 0, len(f.wsList))
	for _, w := range f.wsList {
		if w.ID != id {
			nextWss = append(nextWss, w)
		}
	}
	nextCols := append([]types.Collection(nil), f.colList...)
	for i := range nextCols {
		if nextCols[i].WorkspaceID == id {
			nextCols[i].WorkspaceID = types.DefaultWorkspaceID
		}
	}
	f.wsList = nextWss
	f.colList = nextCols
	f.mu.Unlock()
	f.notify()
	defer func() {
		f.mu.Lock()
		delete(f.isRemoving, id)
		f.mu.Unlock()
	}()

	f.beginLocal()
	moved, err := f.wss.Delete(ctx, id)
	f.endLocal()
	if err != nil {
		f.mu.Lock()
		f.wsList = prevWss
		f.colList = prevCols
		f.mu.Unlock()
		f.fail(userMessage(err), err)
		return 0, err
	}
	return moved, nil
}

// RenameWorkspace changes a workspace's name.
func (f *Facade) RenameWorkspace(ctx context.Context, id, name string) error {
	f.mu.Lock()
	prev := f.wsList
	next := append([]types.Workspace(nil), f.wsList...)
	for i := range next {
		if next[i].ID == id {
			next[i].Name = name
		}
	}
	f.wsList = next
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err := f.wss.Rename(ctx, id, name)
	f.endLocal()
	if err != nil {
		f.revertWorkspaces(prev)
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

// ReorderWorkspaces makes the given ID order authoritative.
func (f *Facade) ReorderWorkspaces(ctx context.Context, orderedIDs []string) error {
	f.mu.Lock()
	prevWss := f.wsList
	prevCfg := f.cfg
	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}
	next := append([]types.Workspace(nil), f.wsList...)
	for i := range next {
		if p, ok := position[next[i].ID]; ok {
			next[i].Order = p
		}
	}
	f.cfg.WorkspacesReordered = true
	f.wsList = repo.SortWorkspaces(next, true)
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err := f.wss.Reorder(ctx, orderedIDs)
	f.endLocal()
	if err != nil {
		f.mu.Lock()
		f.wsList = prevWss
		f.cfg = prevCfg
		f.mu.Unlock()
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

// UpdateSettings overwrites the settings record.
func (f *Facade) UpdateSettings(ctx context.Context, s types.Settings) error {
	f.mu.Lock()
	prev := f.cfg
	f.cfg = s
	f.mu.Unlock()
	f.notify()

	f.beginLocal()
	err := f.settings.Set(ctx, s)
	f.endLocal()
	if err != nil {
		f.mu.Lock()
		f.cfg = prev
		f.mu.Unlock()
		f.fail(userMessage(err), err)
		return err
	}
	return nil
}

func (f *Facade) revertLinks(prev []types.Link) {
	f.mu.Lock()
	f.linkList = prev
	f.mu.Unlock()
}

func (f *Facade) revertCollections(prev []types.Collection) {
	f.mu.Lock()
	f.colList = prev
	f.mu.Unlock()
}

func (f *Facade) revertWorkspaces(prev []types.Workspace) {
	f.mu.Lock()
	f.wsList = prev
	f.mu.Unlock()
}

// userMessage maps an operation error to the one human-readable message the
// UI shows. Quota exhaustion is surfaced as such; business-rule rejections
// read back their own wording; everything else stays generic.
func userMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrQuotaExceeded):
		return "storage is full, remove some links to free space"
	case errors.Is(err, types.ErrInboxDeleteForbidden),
		errors.Is(err, types.ErrDefaultWorkspace),
		errors.Is(err, types.ErrDuplicateName),
		errors.Is(err, types.ErrNameEmpty),
		errors.Is(err, types.ErrNameTooLong),
		errors.Is(err, types.ErrDescriptionTooLong),
		errors.Is(err, types.ErrInvalidColor),
		errors.Is(err, types.ErrWorkspaceLimit):
		return capitalizeErr(err)
	case errors.Is(err, types.ErrNotFound):
		return "that item no longer exists"
	case errors.Is(err, types.ErrNoActiveTab):
		return "no tab to save"
	case errors.Is(err, types.ErrTabHasNoURL):
		return "this tab has nothing to save"
	default:
		return "something went wrong, please try again"
	}
}

func capitalizeErr(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
