package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationBitmaps(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	taken, err := c.EmailRegistered(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, c.MarkEmailRegistered(ctx, "alice@example.com"))

	taken, err = c.EmailRegistered(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	// probes are case-insensitive
	taken, err = c.EmailRegistered(ctx, "ALICE@Example.COM")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = c.UsernameRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, c.MarkUsernameRegistered(ctx, "alice"))

	taken, err = c.UsernameRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	var got payload
	found, err := c.SnapshotGet(ctx, "thing:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SnapshotSet(ctx, "thing:1", payload{Name: "dice tower", N: 3}))

	found, err = c.SnapshotGet(ctx, "thing:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "dice tower", N: 3}, got)

	require.NoError(t, c.SnapshotDel(ctx, "thing:1"))
	found, err = c.SnapshotGet(ctx, "thing:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
