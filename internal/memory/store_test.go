package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func newTestStore(t *testing.T, quota int64) *Store {
	t.Helper()
	s, err := NewStore(types.Config{Backend: types.BackendMemory, QuotaBytes: quota})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	_, err := s.Get(ctx, types.KeyLinks)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)

	_, err = s.Set(ctx, types.KeyLinks, []byte(`[{"id":"a"}]`))
	require.NoError(t, err)

	got, err := s.Get(ctx, types.KeyLinks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))

	_, err = s.Remove(ctx, types.KeyLinks)
	require.NoError(t, err)
	_, err = s.Get(ctx, types.KeyLinks)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)

	// Removing an absent key is not an error.
	_, err = s.Remove(ctx, types.KeyLinks)
	assert.NoError(t, err)
}

func TestStoreRejectsBadKeysAndValues(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	_, err := s.Set(ctx, "", []byte("{}"))
	assert.ErrorIs(t, err, types.ErrInvalidKey)

	_, err = s.Set(ctx, types.KeyLinks, nil)
	assert.ErrorIs(t, err, types.ErrInvalidValue)

	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidKey)
}

func TestStoreQuota(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	_, err := s.Set(ctx, "a", []byte("12345"))
	require.NoError(t, err)

	// Overwriting counts the delta, not the sum.
	_, err = s.Set(ctx, "a", []byte("1234567890"))
	require.NoError(t, err)

	_, err = s.Set(ctx, "b", []byte("x"))
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)

	// A rejected batch must not partially apply.
	_, err = s.SetBatch(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("0123456789abc")})
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", string(got))
}

func TestStoreNotifiesEveryWatcherIncludingWriter(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	var seen []types.ChangeSet
	cancel := s.Watch(func(cs types.ChangeSet) { seen = append(seen, cs) })
	defer cancel()

	seq, err := s.Set(ctx, types.KeyLinks, []byte(`[]`))
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, seq, seen[0].Seq)
	ch := seen[0].Changes[types.KeyLinks]
	assert.Nil(t, ch.Old)
	assert.Equal(t, `[]`, string(ch.New))

	_, err = s.Remove(ctx, types.KeyLinks)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	ch = seen[1].Changes[types.KeyLinks]
	assert.Equal(t, `[]`, string(ch.Old))
	assert.Nil(t, ch.New)
}

func TestStoreBatchIsOneNotification(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	var seen []types.ChangeSet
	s.Watch(func(cs types.ChangeSet) { seen = append(seen, cs) })

	_, err := s.SetBatch(ctx, map[string][]byte{
		types.KeyCollections: []byte(`[]`),
		types.KeySettings:    []byte(`{}`),
	})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Len(t, seen[0].Changes, 2)
}

func TestStoreCompareAndSet(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	// Absent key has version 0.
	v, err := s.Version(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, v)

	seq, err := s.CompareAndSet(ctx, "k", []byte("1"), 0)
	require.NoError(t, err)

	// Stale expectation conflicts.
	_, err = s.CompareAndSet(ctx, "k", []byte("2"), 0)
	assert.ErrorIs(t, err, types.ErrCASConflict)

	// Fresh expectation succeeds.
	v, err = s.Version(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, seq, v)
	_, err = s.CompareAndSet(ctx, "k", []byte("2"), v)
	require.NoError(t, err)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestStoreClosed(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = s.Set(context.Background(), "k", []byte("1"))
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}
