package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

// Links is the link repository. Links are created by stashing a tab,
// mutated only by relocation, and removed only explicitly.
type Links struct {
	store types.Store
}

// NewLinks returns a link repository over store.
func NewLinks(store types.Store) *Links {
	return &Links{store: store}
}

// LinkInput is the caller-supplied part of a new link. CollectionID may be
// empty; it defaults to the inbox.
type LinkInput struct {
	URL          string
	Title        string
	Favicon      string
	CollectionID string
}

// List returns every stored link in persisted order.
func (r *Links) List(ctx context.Context) ([]types.Link, error) {
	links, _, err := readList[types.Link](ctx, r.store, types.KeyLinks)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Save overwrites the whole link array. The store has no per-element
// addressing; this is the only write primitive.
func (r *Links) Save(ctx context.Context, all []types.Link) error {
	if _, err := writeList(ctx, r.store, types.KeyLinks, all); err != nil {
		return err
	}
	return nil
}

// Build constructs the link entity Add would persist: generated ID,
// creation timestamp, CollectionID defaulted to the inbox. Split out so the
// facade can mirror the exact entity before the write confirms.
func (r *Links) Build(input LinkInput) (types.Link, error) {
	if strings.TrimSpace(input.URL) == "" {
		return types.Link{}, types.ErrTabHasNoURL
	}

	link := types.Link{
		ID:           newID(),
		URL:          input.URL,
		Title:        input.Title,
		Favicon:      input.Favicon,
		CollectionID: input.CollectionID,
		CreatedAt:    time.Now().UTC(),
	}
	if link.CollectionID == "" {
		link.CollectionID = types.InboxCollectionID
	}
	return link, nil
}

// Insert appends a pre-built link to the stored array.
func (r *Links) Insert(ctx context.Context, link types.Link) error {
	_, err := mutateList(ctx, r.store, types.KeyLinks, func(links []types.Link) ([]types.Link, error) {
		return append(links, link), nil
	})
	if err != nil {
		return fmt.Errorf("adding link: %w", err)
	}
	return nil
}

// Add appends a new link with a generated ID and timestamp. An empty
// CollectionID lands in the inbox. The target collection is not verified
// here; the inbox invariant guarantees the default target always resolves.
func (r *Links) Add(ctx context.Context, input LinkInput) (types.Link, error) {
	link, err := r.Build(input)
	if err != nil {
		return types.Link{}, err
	}
	if err := r.Insert(ctx, link); err != nil {
		return types.Link{}, err
	}
	return link, nil
}

// Remove deletes the link with the given ID. Returns ErrNotFound without
// mutating when the ID is unknown.
func (r *Links) Remove(ctx context.Context, id string) error {
	_, err := mutateList(ctx, r.store, types.KeyLinks, func(links []types.Link) ([]types.Link, error) {
		next := make([]types.Link, 0, len(links))
		found := false
		for _, l := range links {
			if l.ID == id {
				found = true
				continue
			}
			next = append(next, l)
		}
		if !found {
			return nil, types.ErrNotFound
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	return nil
}

// Move rewrites one link's CollectionID. The target must be the inbox or an
// existing collection; an unknown link or target reports ErrNotFound
// without mutating anything.
func (r *Links) Move(ctx context.Context, id, toCollectionID string) error {
	if toCollectionID != types.InboxCollectionID {
		cols, _, err := readList[types.Collection](ctx, r.store, types.KeyCollections)
		if err != nil {
			return err
		}
		exists := false
		for _, c := range cols {
			if c.ID == toCollectionID {
				exists = true
				break
			}
		}
		if !exists {
			return fmt.Errorf("target collection %s: %w", toCollectionID, types.ErrNotFound)
		}
	}

	_, err := mutateList(ctx, r.store, types.KeyLinks, func(links []types.Link) ([]types.Link, error) {
		for i := range links {
			if links[i].ID == id {
				links[i].CollectionID = toCollectionID
				return links, nil
			}
		}
		return nil, fmt.Errorf("link %s: %w", id, types.ErrNotFound)
	})
	return err
}
