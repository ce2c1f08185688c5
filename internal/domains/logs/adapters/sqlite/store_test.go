package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "local.db")
	store, err := Open(path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "feedLogs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "feedLogs", []byte(`[]`)))
	require.NoError(t, store.Set(ctx, "feedLogs", []byte(`[{"id":"a"}]`)))

	value, ok, err := store.Get(ctx, "feedLogs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"a"}]`, string(value))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	value, ok, err = reopened.Get(ctx, "feedLogs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"a"}]`, string(value))
}
