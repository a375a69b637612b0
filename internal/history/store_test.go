package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/history"
)

func setupStore(t *testing.T) *history.Store {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&history.Entry{}))
	return history.NewStore(gdb)
}

// TestAppendAndListOrder checks that entries come back in insertion order
// and that concurrent-style appends never replace one another.
func TestAppendAndListOrder(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Append(ctx, "category", 1, history.ActionCreate, 10, history.Changes{
		"name": {Old: nil, New: "Strategy"},
	}))
	require.NoError(t, store.Append(ctx, "category", 1, history.ActionUpdate, 11, history.Changes{
		"name": {Old: "Strategy", New: "Heavy Strategy"},
	}))
	require.NoError(t, store.Append(ctx, "category", 1, history.ActionDelete, 10, nil))

	// a different entity's log is invisible here
	require.NoError(t, store.Append(ctx, "category", 2, history.ActionCreate, 10, nil))

	entries, err := store.List(ctx, "category", 1, history.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, history.ActionCreate, entries[0].Action)
	assert.Equal(t, history.ActionUpdate, entries[1].Action)
	assert.Equal(t, history.ActionDelete, entries[2].Action)

	changes, err := entries[1].DecodeChanges()
	require.NoError(t, err)
	assert.Equal(t, "Strategy", changes["name"].Old)
	assert.Equal(t, "Heavy Strategy", changes["name"].New)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Append(ctx, "game", 1, history.ActionCreate, 10, nil))
	require.NoError(t, store.Append(ctx, "game", 1, history.ActionMapping, 11, history.Changes{
		"category_id": {Old: nil, New: 3},
	}))
	require.NoError(t, store.Append(ctx, "game", 1, history.ActionMapping, 10, history.Changes{
		"mechanic_id": {Old: nil, New: 5},
	}))

	entries, err := store.List(ctx, "game", 1, history.ListFilter{Action: "mapping"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = store.List(ctx, "game", 1, history.ListFilter{Action: "mapping", UpdatedBy: 11})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(11), entries[0].UpdatedBy)

	// pagination
	entries, err = store.List(ctx, "game", 1, history.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.ActionMapping, entries[0].Action)
}

// TestListRejectsUnknownAction ensures validation happens before any query.
func TestListRejectsUnknownAction(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.List(ctx, "game", 1, history.ListFilter{Action: "upsert"})
	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestAppendRejectsUnknownAction(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	err := store.Append(ctx, "game", 1, history.Action("merge"), 10, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Append(ctx, "mechanic", 7, history.ActionCreate, 1, nil))
	require.NoError(t, store.Append(ctx, "mechanic", 7, history.ActionUpdate, 1, nil))
	require.NoError(t, store.Append(ctx, "mechanic", 8, history.ActionCreate, 1, nil))

	removed, err := store.Purge(ctx, "mechanic", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entries, err := store.List(ctx, "mechanic", 7, history.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// the other entity's log survives
	entries, err = store.List(ctx, "mechanic", 8, history.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
