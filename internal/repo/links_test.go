package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func TestLinksAddDefaultsToInbox(t *testing.T) {
	s := newTestStore(t)
	links := NewLinks(s)
	ctx := context.Background()

	link, err := links.Add(ctx, LinkInput{URL: "https://a.com", Title: "A"})
	require.NoError(t, err)

	assert.NotEmpty(t, link.ID)
	assert.False(t, link.CreatedAt.IsZero())
	assert.Equal(t, types.InboxCollectionID, link.CollectionID)

	got, err := links.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, link, got[0])
}

func TestLinksAddPreservesAllFields(t *testing.T) {
	s := newTestStore(t)
	links := NewLinks(s)
	ctx := context.Background()

	link, err := links.Add(ctx, LinkInput{
		URL:          "https://b.com/page",
		Title:        "B",
		Favicon:      "https://b.com/favicon.ico",
		CollectionID: "work",
	})
	require.NoError(t, err)

	got, err := links.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://b.com/page", got[0].URL)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "https://b.com/favicon.ico", got[0].Favicon)
	assert.Equal(t, "work", got[0].CollectionID)
	assert.Equal(t, link.ID, got[0].ID)
}

func TestLinksAddRejectsEmptyURL(t *testing.T) {
	s := newTestStore(t)
	links := NewLinks(s)

	_, err := links.Add(context.Background(), LinkInput{URL: "  ", Title: "X"})
	assert.ErrorIs(t, err, types.ErrTabHasNoURL)
}

func TestLinksSameURLMayRecur(t *testing.T) {
	s := newTestStore(t)
	links := NewLinks(s)
	ctx := context.Background()

	a, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)
	b, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	got, err := links.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLinksRemove(t *testing.T) {
	s := newTestStore(t)
	links := NewLinks(s)
	ctx := context.Background()

	link, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)

	require.NoError(t, links.Remove(ctx, link.ID))
	got, err := links.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = links.Remove(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLinksMove(t *testing.T) {
	s := newTestStore(t)
	seedCollections(t, s, types.Collection{ID: "work", Name: "Work"})
	links := NewLinks(s)
	ctx := context.Background()

	link, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)

	require.NoError(t, links.Move(ctx, link.ID, "work"))
	got, err := links.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "work", got[0].CollectionID)

	// Inbox is always a valid target.
	require.NoError(t, links.Move(ctx, link.ID, types.InboxCollectionID))
}

func TestLinksMoveNotFoundDoesNotMutate(t *testing.T) {
	s := newTestStore(t)
	seedCollections(t, s, types.Collection{ID: "work", Name: "Work"})
	links := NewLinks(s)
	ctx := context.Background()

	link, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)

	before, err := s.Get(ctx, types.KeyLinks)
	require.NoError(t, err)

	err = links.Move(ctx, "missing", "work")
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = links.Move(ctx, link.ID, "no-such-collection")
	assert.ErrorIs(t, err, types.ErrNotFound)

	after, err := s.Get(ctx, types.KeyLinks)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed moves must not write")
}

func TestLinksSaveOverwritesWholeArray(t *testing.T) {
	s := newTestStore(t)
	links := NewLinks(s)
	ctx := context.Background()

	_, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)

	replacement := []types.Link{{ID: "x", URL: "https://x.com", CollectionID: types.InboxCollectionID}}
	require.NoError(t, links.Save(ctx, replacement))

	got, err := links.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}
