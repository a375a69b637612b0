package game_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meeplevault/catalog/internal/app"
	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/config"
	"github.com/meeplevault/catalog/internal/db"
	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/history"
	"github.com/meeplevault/catalog/internal/search"
	"github.com/meeplevault/catalog/internal/service/game"
)

var (
	admin = &authz.Identity{UserID: 1, Role: db.RoleAdmin}
	alice = &authz.Identity{UserID: 2, Role: db.RoleUser}
	bob   = &authz.Identity{UserID: 3, Role: db.RoleUser}
)

type fixture struct {
	svc   *game.Service
	gdb   *gorm.DB
	cache *cache.Cache
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))

	users := []db.User{
		{ID: 1, Username: "admin", Email: "admin@test.com", PasswordHash: "x", Role: db.RoleAdmin},
		{ID: 2, Username: "alice", Email: "alice@test.com", PasswordHash: "x", Role: db.RoleUser},
		{ID: 3, Username: "bob", Email: "bob@test.com", PasswordHash: "x", Role: db.RoleUser},
	}
	require.NoError(t, gdb.Create(&users).Error)

	categories := []db.Category{
		{ID: 1, OwnerID: 1, Name: "Strategy", Status: db.StatusPublic},
		{ID: 2, OwnerID: 1, Name: "Party", Status: db.StatusPublic},
	}
	require.NoError(t, gdb.Create(&categories).Error)

	mechanics := []db.Mechanic{
		{ID: 1, OwnerID: 1, Name: "Drafting", Status: db.StatusPublic},
	}
	require.NoError(t, gdb.Create(&mechanics).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.New(cfg)
	t.Cleanup(func() { redisCache.Close() })

	idx, err := search.NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, redisCache, idx, history.NewStore(gdb), log)

	owners := db.NewOwnerReader(gdb)
	checker := authz.NewChecker(redisCache, log)
	checker.RegisterOwnerLookup("game", owners.Game)

	return &fixture{
		svc:   game.NewService(appCtx, checker),
		gdb:   gdb,
		cache: redisCache,
	}
}

func (f *fixture) create(t *testing.T, ident *authz.Identity, name string) uint64 {
	t.Helper()
	id, err := f.svc.Create(context.Background(), ident, game.CreateInput{Name: name})
	require.NoError(t, err)
	return id
}

func ptr(s string) *string { return &s }

//
// Tests
//

func TestCreateCachesOwnership(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")

	owner, found, err := f.cache.OwnerGet(ctx, "game", id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2", owner)

	entries, err := f.svc.History(ctx, id, history.ListFilter{Action: "create"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateDiffAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")

	err := f.svc.Update(ctx, bob, id, game.UpdateInput{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	require.NoError(t, f.svc.Update(ctx, alice, id, game.UpdateInput{
		Name:        ptr("Demo Game"), // unchanged
		Description: ptr("A fine game"),
	}))

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A fine game", got.Description)

	entries, err := f.svc.History(ctx, id, history.ListFilter{Action: "update"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	changes, err := entries[0].DecodeChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "A fine game", changes["description"].New)
}

// TestAddCategoryIdempotent: the duplicate mapping is a success no-op that
// leaves the counter and the history log untouched.
func TestAddCategoryIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")

	// populate the counter so the increments are observable
	require.NoError(t, f.cache.CounterSet(ctx, cache.CounterCategoryGames, 1, 0))

	require.NoError(t, f.svc.AddCategory(ctx, alice, id, 1))
	require.NoError(t, f.svc.AddCategory(ctx, alice, id, 1))

	n, found, err := f.cache.CounterGet(ctx, cache.CounterCategoryGames, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), n)

	categories, err := f.svc.Categories(ctx, id)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Strategy", categories[0].Name)

	entries, err := f.svc.History(ctx, id, history.ListFilter{Action: "mapping"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestRemoveCategoryFloor: removing an absent mapping is a no-op; the
// counter never drops below zero.
func TestRemoveCategoryFloor(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")
	require.NoError(t, f.cache.CounterSet(ctx, cache.CounterCategoryGames, 1, 0))

	require.NoError(t, f.svc.RemoveCategory(ctx, alice, id, 1))

	n, _, err := f.cache.CounterGet(ctx, cache.CounterCategoryGames, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, f.svc.AddCategory(ctx, alice, id, 1))
	require.NoError(t, f.svc.RemoveCategory(ctx, alice, id, 1))
	require.NoError(t, f.svc.RemoveCategory(ctx, alice, id, 1))

	n, _, err = f.cache.CounterGet(ctx, cache.CounterCategoryGames, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	categories, err := f.svc.Categories(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

// TestMappingInvalidatesListSnapshot: the cached category list reflects
// mutations because each mapping write drops the snapshot.
func TestMappingInvalidatesListSnapshot(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")
	require.NoError(t, f.svc.AddCategory(ctx, alice, id, 1))

	// warm the snapshot
	categories, err := f.svc.Categories(ctx, id)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	require.NoError(t, f.svc.AddCategory(ctx, alice, id, 2))

	categories, err = f.svc.Categories(ctx, id)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestMechanicMappings(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")

	require.NoError(t, f.svc.AddMechanic(ctx, alice, id, 1))

	mechanics, err := f.svc.Mechanics(ctx, id)
	require.NoError(t, err)
	require.Len(t, mechanics, 1)
	assert.Equal(t, "Drafting", mechanics[0].Name)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Mechanics, 1)
	assert.Empty(t, got.Categories)

	require.NoError(t, f.svc.RemoveMechanic(ctx, alice, id, 1))

	mechanics, err = f.svc.Mechanics(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, mechanics)
}

// TestDeleteCleansUp: the game, its ownership entry and its cached
// snapshots are gone; mapping history survives with the delete entry.
func TestDeleteCleansUp(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id := f.create(t, alice, "Demo Game")
	require.NoError(t, f.svc.AddCategory(ctx, alice, id, 1))

	// admin may delete someone else's game
	require.NoError(t, f.svc.Delete(ctx, admin, id))

	_, err := f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, found, err := f.cache.OwnerGet(ctx, "game", id)
	require.NoError(t, err)
	assert.False(t, found)

	entries, err := f.svc.History(ctx, id, history.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3) // create, mapping, delete
	assert.Equal(t, history.ActionDelete, entries[2].Action)
	assert.Equal(t, admin.UserID, entries[2].UpdatedBy)
}
