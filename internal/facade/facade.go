// Package facade implements the reactive store facade: an in-memory mirror
// of links, collections, and workspaces kept consistent with the backing
// store by optimistic local mutation and the change-stream synchronization
// protocol. One facade serves one UI surface; several facades over the same
// store model, several concurrently open surfaces.
package facade

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/linkstash/internal/repo"
	"github.com/mesh-intelligence/linkstash/internal/tabs"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Facade mirrors the persisted state for one UI surface. All methods are
// safe for concurrent use.
type Facade struct {
	store    types.Store
	links    *repo.Links
	cols     *repo.Collections
	wss      *repo.Workspaces
	settings *repo.Settings
	log      *slog.Logger

	mu sync.Mutex
	// mirror
	linkList []types.Link
	colList  []types.Collection
	wsList   []types.Workspace
	cfg      types.Settings
	loading  bool
	lastErr  string

	// duplicate-invocation guards and local-echo suppression
	isAdding   bool
	isRemoving map[string]bool
	pending    int    // local writes in flight
	appliedSeq uint64 // highest change-set sequence applied to the mirror

	subs        map[int]func(Snapshot)
	nextSubID   int
	cancelWatch func()
}

// Snapshot is a copy of the mirror handed to subscribers and readers.
type Snapshot struct {
	Links       []types.Link
	Collections []types.Collection
	Workspaces  []types.Workspace
	Settings    types.Settings
	Loading     bool
	Error       string
}

// New wires a facade over store and starts consuming its change stream.
// Call Close to stop watching.
func New(store types.Store, log *slog.Logger) *Facade {
	if log == nil {
		log = slog.Default()
	}
	f := &Facade{
		store:      store,
		links:      repo.NewLinks(store),
		cols:       repo.NewCollections(store, log),
		wss:        repo.NewWorkspaces(store, log),
		settings:   repo.NewSettings(store),
		log:        log,
		isRemoving: make(map[string]bool),
		subs:       make(map[int]func(Snapshot)),
	}
	f.cancelWatch = store.Watch(f.onChange)
	return f
}

// Close stops consuming the change stream. The mirror stays readable.
func (f *Facade) Close() {
	if f.cancelWatch != nil {
		f.cancelWatch()
		f.cancelWatch = nil
	}
}

// Load initializes the mirror: ensures the reserved entities exist (and
// runs the one-shot workspace migration when due), then fills the mirror
// from the store, deduplicating links by ID.
func (f *Facade) Load(ctx context.Context) error {
	f.setLoading(true)
	defer f.setLoading(false)

	f.beginLocal()
	err := f.cols.EnsureDefaults(ctx)
	f.endLocal()
	if err != nil {
		f.fail("loading your stash failed, please try again", err)
		return err
	}

	links, err := f.links.List(ctx)
	if err != nil {
		f.fail("loading your stash failed, please try again", err)
		return err
	}
	cols, err := f.cols.List(ctx)
	if err != nil {
		f.fail("loading your stash failed, please try again", err)
		return err
	}
	wss, err := f.wss.List(ctx)
	if err != nil {
		f.fail("loading your stash failed, please try again", err)
		return err
	}
	cfg, err := f.settings.Get(ctx)
	if err != nil {
		f.fail("loading your stash failed, please try again", err)
		return err
	}

	f.mu.Lock()
	f.linkList = dedupeLinks(links)
	f.colList = cols
	f.wsList = wss
	f.cfg = cfg
	f.lastErr = ""
	f.mu.Unlock()
	f.notify()
	return nil
}

// State returns a copy of the current mirror.
func (f *Facade) State() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// PendingLocalUpdate reports whether any local write is in flight; while
// true, incoming change notifications are suppressed as local echo.
func (f *Facade) PendingLocalUpdate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending > 0
}

// Subscribe registers cb to receive a snapshot after every mirror change.
// The returned func unsubscribes.
func (f *Facade) Subscribe(cb func(Snapshot)) (cancel func()) {
	f.mu.Lock()
	id := f.nextSubID
	f.nextSubID++
	f.subs[id] = cb
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// StashTab saves the provider's current tab into collectionID (empty for
// the inbox).
func (f *Facade) StashTab(ctx context.Context, provider tabs.Provider, collectionID string) (types.Link, error) {
	tab, err := provider.CurrentTab(ctx)
	if err != nil {
		f.fail(userMessage(err), err)
		return types.Link{}, err
	}
	return f.AddLink(ctx, repo.LinkInput{
		URL:          tab.URL,
		Title:        tab.Title,
		Favicon:      tab.Favicon,
		CollectionID: collectionID,
	})
}

func (f *Facade) snapshotLocked() Snapshot {
	return Snapshot{
		Links:       append([]types.Link(nil), f.linkList...),
		Collections: append([]types.Collection(nil), f.colList...),
		Workspaces:  append([]types.Workspace(nil), f.wsList...),
		Settings:    f.cfg,
		Loading:     f.loading,
		Error:       f.lastErr,
	}
}

// notify delivers the current snapshot to every subscriber outside the lock.
func (f *Facade) notify() {
	f.mu.Lock()
	snap := f.snapshotLocked()
	cbs := make([]func(Snapshot), 0, len(f.subs))
	for _, cb := range f.subs {
		cbs = append(cbs, cb)
	}
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(snap)
	}
}

func (f *Facade) setLoading(v bool) {
	f.mu.Lock()
	f.loading = v
	f.mu.Unlock()
	f.notify()
}

// beginLocal marks a local write in flight; its store notification will be
// suppressed as local echo. A counter rather than a boolean: a second write
// starting before the first one's notification lands must not unsuppress.
func (f *Facade) beginLocal() {
	f.mu.Lock()
	f.pending++
	f.mu.Unlock()
}

func (f *Facade) endLocal() {
	f.mu.Lock()
	f.pending--
	f.mu.Unlock()
}

// fail records a user-facing error message on the mirror.
func (f *Facade) fail(msg string, err error) {
	f.log.Warn("operation failed", "error", err)
	f.mu.Lock()
	f.lastErr = msg
	f.mu.Unlock()
	f.notify()
}

// ClearError discards the last user-facing error message.
func (f *Facade) ClearError() {
	f.mu.Lock()
	f.lastErr = ""
	f.mu.Unlock()
	f.notify()
}

// dedupeLinks drops duplicate IDs, keeping first occurrence. Near-
// simultaneous writers can briefly double an entry at array granularity;
// the mirror never shows it.
func dedupeLinks(links []types.Link) []types.Link {
	seen := make(map[string]bool, len(links))
	out := make([]types.Link, 0, len(links))
	for _, l := range links {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}
