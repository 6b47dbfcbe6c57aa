package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, cols.EnsureDefaults(ctx))
	}

	got, err := cols.List(ctx)
	require.NoError(t, err)

	inboxes := 0
	for _, c := range got {
		if c.ID == types.InboxCollectionID {
			inboxes++
		}
	}
	assert.Equal(t, 1, inboxes, "exactly one inbox after repeated initialization")
}

func TestEnsureDefaultsMigratesCollectionsToDefaultWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Pre-workspace data: collections exist, workspaces key absent.
	pre := []types.Collection{
		{ID: "inbox", Name: "Inbox", IsDefault: true, CreatedAt: time.Now().UTC()},
		{ID: "c1", Name: "Work", CreatedAt: time.Now().UTC()},
	}
	_, err := writeList(ctx, s, types.KeyCollections, pre)
	require.NoError(t, err)

	cols := NewCollections(s, nil)
	require.NoError(t, cols.EnsureDefaults(ctx))

	got, err := cols.List(ctx)
	require.NoError(t, err)
	for _, c := range got {
		assert.Equal(t, types.DefaultWorkspaceID, c.WorkspaceID, "collection %s claimed by default workspace", c.ID)
	}

	wss, _, err := readList[types.Workspace](ctx, s, types.KeyWorkspaces)
	require.NoError(t, err)
	require.Len(t, wss, 1)
	assert.True(t, wss[0].IsDefault)
	assert.Equal(t, types.DefaultWorkspaceID, wss[0].ID)
}

func TestCollectionsCreate(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	ctx := context.Background()
	require.NoError(t, cols.EnsureDefaults(ctx))

	work, err := cols.Create(ctx, "Work", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, work.Order, "order past the inbox's 0")
	assert.Equal(t, types.DefaultWorkspaceID, work.WorkspaceID)

	reading, err := cols.Create(ctx, "  Reading  ", "#ff8800", "")
	require.NoError(t, err)
	assert.Equal(t, "Reading", reading.Name, "name is trimmed")
	assert.Equal(t, 2, reading.Order)

	_, err = cols.Create(ctx, "work", "", "")
	assert.ErrorIs(t, err, types.ErrDuplicateName)

	_, err = cols.Create(ctx, "", "", "")
	assert.ErrorIs(t, err, types.ErrNameEmpty)

	_, err = cols.Create(ctx, "Colors", "red", "")
	assert.ErrorIs(t, err, types.ErrInvalidColor)
}

func TestCollectionsListOrder(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []types.Collection{
		{ID: "old", Name: "Old", Order: 1, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "inbox", Name: "Inbox", IsDefault: true, Order: 99, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "new", Name: "New", Order: 2, CreatedAt: now},
	}
	_, err := writeList(ctx, s, types.KeyCollections, seed)
	require.NoError(t, err)

	// Before any explicit reorder: inbox first despite Order 99, then
	// newest-first by creation time.
	got, err := cols.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "inbox", got[0].ID)
	assert.Equal(t, "new", got[1].ID)
	assert.Equal(t, "old", got[2].ID)

	// After an explicit reorder the Order field is authoritative.
	require.NoError(t, cols.Reorder(ctx, []string{"old", "new"}))
	got, err = cols.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "inbox", got[0].ID, "inbox pinned first regardless")
	assert.Equal(t, "old", got[1].ID)
	assert.Equal(t, "new", got[2].ID)
}

func TestCollectionsRenameChangesOnlyTheName(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	ctx := context.Background()
	require.NoError(t, cols.EnsureDefaults(ctx))

	work, err := cols.Create(ctx, "Work", "#ff8800", "")
	require.NoError(t, err)

	require.NoError(t, cols.Rename(ctx, work.ID, "Job"))

	got, err := cols.List(ctx)
	require.NoError(t, err)
	for _, c := range got {
		if c.ID == work.ID {
			assert.Equal(t, "Job", c.Name)
			assert.Equal(t, work.Order, c.Order)
			assert.Equal(t, work.Color, c.Color)
			assert.Equal(t, work.CreatedAt.Unix(), c.CreatedAt.Unix())
		}
	}

	err = cols.Rename(ctx, "missing", "X")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteCollectionMovesLinksToInbox(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	links := NewLinks(s)
	ctx := context.Background()
	require.NoError(t, cols.EnsureDefaults(ctx))

	work, err := cols.Create(ctx, "Work", "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := links.Add(ctx, LinkInput{URL: "https://a.com", CollectionID: work.ID})
		require.NoError(t, err)
	}
	keep, err := links.Add(ctx, LinkInput{URL: "https://keep.com"})
	require.NoError(t, err)

	moved, err := cols.Delete(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	got, err := cols.List(ctx)
	require.NoError(t, err)
	for _, c := range got {
		assert.NotEqual(t, work.ID, c.ID, "deleted collection absent")
	}

	allLinks, err := links.List(ctx)
	require.NoError(t, err)
	require.Len(t, allLinks, 4)
	for _, l := range allLinks {
		assert.Equal(t, types.InboxCollectionID, l.CollectionID)
	}
	_ = keep
}

func TestDeleteEmptyCollectionMovesZero(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	ctx := context.Background()
	require.NoError(t, cols.EnsureDefaults(ctx))

	empty, err := cols.Create(ctx, "Empty", "", "")
	require.NoError(t, err)

	moved, err := cols.Delete(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestDeleteInboxForbiddenAndByteIdentical(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	links := NewLinks(s)
	ctx := context.Background()
	require.NoError(t, cols.EnsureDefaults(ctx))
	_, err := links.Add(ctx, LinkInput{URL: "https://a.com"})
	require.NoError(t, err)

	beforeCols, err := s.Get(ctx, types.KeyCollections)
	require.NoError(t, err)
	beforeLinks, err := s.Get(ctx, types.KeyLinks)
	require.NoError(t, err)

	_, err = cols.Delete(ctx, types.InboxCollectionID)
	assert.ErrorIs(t, err, types.ErrInboxDeleteForbidden)

	afterCols, err := s.Get(ctx, types.KeyCollections)
	require.NoError(t, err)
	afterLinks, err := s.Get(ctx, types.KeyLinks)
	require.NoError(t, err)
	assert.Equal(t, beforeCols, afterCols)
	assert.Equal(t, beforeLinks, afterLinks)
}

func TestDeleteUnknownCollectionDoesNotMutate(t *testing.T) {
	s := newTestStore(t)
	cols := NewCollections(s, nil)
	ctx := context.Background()
	require.NoError(t, cols.EnsureDefaults(ctx))

	before, err := s.Get(ctx, types.KeyCollections)
	require.NoError(t, err)

	_, err = cols.Delete(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	after, err := s.Get(ctx, types.KeyCollections)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteCollectionRollsBackOnMidSequenceFailure(t *testing.T) {
	inner := newTestStore(t)
	ctx := context.Background()

	setup := NewCollections(inner, nil)
	require.NoError(t, setup.EnsureDefaults(ctx))
	work, err := setup.Create(ctx, "Work", "", "")
	require.NoError(t, err)
	_, err = NewLinks(inner).Add(ctx, LinkInput{URL: "https://a.com", CollectionID: work.ID})
	require.NoError(t, err)

	beforeLinks, err := inner.Get(ctx, types.KeyLinks)
	require.NoError(t, err)
	beforeCols, err := inner.Get(ctx, types.KeyCollections)
	require.NoError(t, err)

	// The delete sequence writes links, then collections; fail the
	// second write so the links write must be rolled back.
	flaky := &flakyStore{Store: inner, failOnSet: 2}
	cols := NewCollections(flaky, nil)
	_, err = cols.Delete(ctx, work.ID)
	require.Error(t, err)

	afterLinks, err := inner.Get(ctx, types.KeyLinks)
	require.NoError(t, err)
	afterCols, err := inner.Get(ctx, types.KeyCollections)
	require.NoError(t, err)
	assert.Equal(t, string(beforeLinks), string(afterLinks), "links restored")
	assert.Equal(t, string(beforeCols), string(afterCols), "collections restored")
}
