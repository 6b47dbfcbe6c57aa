package facade

import (
	"encoding/json"

	"github.com/mesh-intelligence/linkstash/internal/repo"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// onChange is the synchronization protocol's entry point: it consumes the
// store's change stream, dedupes by sequence token, and decides whether an
// incoming batch may touch the mirror. A batch arriving while a local write
// is in flight is this facade's own echo (or will be superseded by the
// local write's reread) and is dropped; everything else replaces the
// mirror's lists wholesale after ID deduplication.
func (f *Facade) onChange(cs types.ChangeSet) {
	f.mu.Lock()
	if cs.Seq <= f.appliedSeq {
		f.mu.Unlock()
		return
	}
	f.appliedSeq = cs.Seq

	if f.pending > 0 {
		f.mu.Unlock()
		f.log.Debug("suppressed local echo", "seq", cs.Seq)
		return
	}

	changed := false
	// Settings first: the list sorting below depends on the reorder flags,
	// and one batch can carry a list together with the flag flip that
	// governs it (a reorder writes collections and settings in one batch).
	// Map iteration order must not decide which lands first.
	if ch, ok := cs.Changes[types.KeySettings]; ok {
		var cfg types.Settings
		if decodeOr(ch.New, &cfg) {
			f.cfg = cfg
			changed = true
		}
	}
	for key, ch := range cs.Changes {
		switch key {
		case types.KeyLinks:
			var links []types.Link
			if decodeOr(ch.New, &links) {
				f.linkList = dedupeLinks(links)
				changed = true
			}
		case types.KeyCollections:
			var cols []types.Collection
			if decodeOr(ch.New, &cols) {
				f.colList = repo.SortCollections(dedupeCollections(cols), f.cfg.CollectionsReordered)
				changed = true
			}
		case types.KeyWorkspaces:
			var wss []types.Workspace
			if decodeOr(ch.New, &wss) {
				f.wsList = repo.SortWorkspaces(wss, f.cfg.WorkspacesReordered)
				changed = true
			}
		}
	}
	f.mu.Unlock()

	if changed {
		f.notify()
	}
}

// decodeOr unmarshals raw into v; a nil raw (key removed) leaves v at its
// zero value, which for the lists means empty. Malformed payloads are
// ignored rather than corrupting the mirror.
func decodeOr(raw []byte, v any) bool {
	if raw == nil {
		return true
	}
	return json.Unmarshal(raw, v) == nil
}

func dedupeCollections(cols []types.Collection) []types.Collection {
	seen := make(map[string]bool, len(cols))
	out := make([]types.Collection, 0, len(cols))
	for _, c := range cols {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
