package facade

import (
	"time"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Stats aggregates the whole stash for the dashboard header.
type Stats struct {
	TotalLinks       int
	TotalCollections int
	LastSavedAt      time.Time
}

// LinksByCollection groups the mirrored links by their collection, keyed by
// collection ID. Every collection appears, including empty ones.
func (f *Facade) LinksByCollection() map[string][]types.Link {
	f.mu.Lock()
	defer f.mu.Unlock()

	groups := make(map[string][]types.Link, len(f.colList))
	for _, c := range f.colList {
		groups[c.ID] = nil
	}
	for _, l := range f.linkList {
		groups[l.CollectionID] = append(groups[l.CollectionID], l)
	}
	return groups
}

// LinkCounts returns per-collection link counts keyed by collection ID.
func (f *Facade) LinkCounts() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int, len(f.colList))
	for _, c := range f.colList {
		counts[c.ID] = 0
	}
	for _, l := range f.linkList {
		counts[l.CollectionID]++
	}
	return counts
}

// Stats returns aggregate numbers over the mirror. LastSavedAt is zero when
// no link has ever been saved.
func (f *Facade) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Stats{
		TotalLinks:       len(f.linkList),
		TotalCollections: len(f.colList),
	}
	for _, l := range f.linkList {
		if l.CreatedAt.After(s.LastSavedAt) {
			s.LastSavedAt = l.CreatedAt
		}
	}
	return s
}
