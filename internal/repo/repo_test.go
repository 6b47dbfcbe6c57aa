package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkstash/internal/memory"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func newTestStore(t *testing.T) types.Store {
	t.Helper()
	s, err := memory.NewStore(types.Config{Backend: types.BackendMemory})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// flakyStore delegates to an inner store, failing the Nth Set call. Used to
// force a composite operation to die mid-sequence.
type flakyStore struct {
	types.Store
	setCalls  int
	failOnSet int
}

var errInjected = errors.New("injected backend failure")

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) (uint64, error) {
	f.setCalls++
	if f.setCalls == f.failOnSet {
		return 0, errInjected
	}
	return f.Store.Set(ctx, key, value)
}

// seedCollections writes an inbox plus the given extra collections.
func seedCollections(t *testing.T, s types.Store, extras ...types.Collection) {
	t.Helper()
	cols := append([]types.Collection{types.NewInboxCollection()}, extras...)
	_, err := writeList(context.Background(), s, types.KeyCollections, cols)
	require.NoError(t, err)
}
