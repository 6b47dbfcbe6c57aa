package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := NewSettings(s)

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Settings{}, got, "absent key yields the zero record")

	require.NoError(t, r.Set(ctx, types.Settings{ReplaceNewTab: true}))

	got, err = r.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.ReplaceNewTab)
	assert.False(t, got.CollectionsReordered)
}
