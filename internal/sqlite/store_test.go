package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(types.Config{})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)

	_, err = Open(types.Config{Backend: "bolt"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	_, err := s.Get(ctx, types.KeyLinks)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)

	_, err = s.Set(ctx, types.KeyLinks, []byte(`[{"id":"a"}]`))
	require.NoError(t, err)

	got, err := s.Get(ctx, types.KeyLinks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))

	values, err := s.GetBatch(ctx, []string{types.KeyLinks, types.KeyCollections})
	require.NoError(t, err)
	assert.Len(t, values, 1, "absent keys omitted from batch result")

	_, err = s.Remove(ctx, types.KeyLinks)
	require.NoError(t, err)
	_, err = s.Get(ctx, types.KeyLinks)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t, dir)
	_, err := s.Set(ctx, types.KeyCollections, []byte(`[{"id":"inbox"}]`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2 := newTestStore(t, dir)
	got, err := s2.Get(ctx, types.KeyCollections)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"inbox"}]`, string(got))
}

func TestStoreQuota(t *testing.T) {
	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), QuotaBytes: 10})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Set(ctx, "a", []byte("1234567890"))
	require.NoError(t, err)

	_, err = s.Set(ctx, "b", []byte("x"))
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)

	// Replacing a value within quota still works.
	_, err = s.Set(ctx, "a", []byte("123"))
	assert.NoError(t, err)
}

func TestStoreWatchAndSequence(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	var seqs []uint64
	cancel := s.Watch(func(cs types.ChangeSet) { seqs = append(seqs, cs.Seq) })
	defer cancel()

	s1, err := s.Set(ctx, "a", []byte("1"))
	require.NoError(t, err)
	s2, err := s.Set(ctx, "a", []byte("2"))
	require.NoError(t, err)

	assert.Equal(t, []uint64{s1, s2}, seqs)
	assert.Greater(t, s2, s1)
}

func TestStoreWatcherMayReenter(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	// A watcher reading back during notification must not deadlock; the
	// broadcast happens after the store lock is released.
	var seen []byte
	cancel := s.Watch(func(cs types.ChangeSet) {
		v, err := s.Get(ctx, "a")
		assert.NoError(t, err)
		seen = v
	})
	defer cancel()

	_, err := s.Set(ctx, "a", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), seen)

	_, err = s.CompareAndSet(ctx, "a", []byte("2"), mustVersion(t, s, "a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), seen)

	cancel()
	reenter := s.Watch(func(cs types.ChangeSet) {
		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, types.ErrKeyNotFound)
	})
	defer reenter()
	_, err = s.Remove(ctx, "a")
	require.NoError(t, err)
}

func mustVersion(t *testing.T, s *Store, key string) uint64 {
	t.Helper()
	v, err := s.Version(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestStoreCompareAndSet(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	seq, err := s.CompareAndSet(ctx, "k", []byte("1"), 0)
	require.NoError(t, err)

	_, err = s.CompareAndSet(ctx, "k", []byte("2"), 0)
	assert.ErrorIs(t, err, types.ErrCASConflict)

	v, err := s.Version(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, seq, v)

	_, err = s.CompareAndSet(ctx, "k", []byte("2"), v)
	require.NoError(t, err)
}

func TestStoreClosedIsIdempotent(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}
