// Package notify implements the change-notification hub shared by the
// store backends. Every write is broadcast to every registered watcher,
// including the process that issued it; local-echo suppression happens one
// layer up, keyed on the sequence token.
package notify

import (
	"sync"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Hub fans ChangeSet batches out to registered watchers. Delivery is
// synchronous and in registration order; callbacks must not block.
type Hub struct {
	mu       sync.Mutex
	nextID   int
	nextSeq  uint64
	watchers map[int]func(types.ChangeSet)
}

// NewHub returns an empty hub. Sequence tokens start at 1.
func NewHub() *Hub {
	return &Hub{watchers: make(map[int]func(types.ChangeSet))}
}

// NextSeq reserves and returns the next write sequence token.
func (h *Hub) NextSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSeq++
	return h.nextSeq
}

// Watch registers cb and returns a cancel func. Cancel is idempotent.
func (h *Hub) Watch(cb func(types.ChangeSet)) (cancel func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.watchers[id] = cb
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

// Broadcast delivers cs to every registered watcher. Empty change sets are
// dropped; watchers registered during delivery are not called for cs.
func (h *Hub) Broadcast(cs types.ChangeSet) {
	if len(cs.Changes) == 0 {
		return
	}

	h.mu.Lock()
	cbs := make([]func(types.ChangeSet), 0, len(h.watchers))
	for _, cb := range h.watchers {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()

	for _, cb := range cbs {
		cb(cs)
	}
}
