package video_test

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
	"github.com/meeplevault/catalog/internal/service/video"
)

var (
	alice = &authz.Identity{UserID: 2, Role: db.RoleUser}
	bob   = &authz.Identity{UserID: 3, Role: db.RoleUser}
)

type fixture struct {
	svc    *video.Service
	gameID uint64
}

func setup(t *testing.T) fixture {
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
		{ID: 2, Username: "alice", Email: "alice@test.com", PasswordHash: "x", Role: db.RoleUser},
		{ID: 3, Username: "bob", Email: "bob@test.com", PasswordHash: "x", Role: db.RoleUser},
	}
	require.NoError(t, gdb.Create(&users).Error)

	g := db.Game{OwnerID: alice.UserID, Name: "Agricola", Status: db.StatusPublic}
	require.NoError(t, gdb.Create(&g).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.New(cfg)
	t.Cleanup(func() { redisCache.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, redisCache, nil, history.NewStore(gdb), log)

	owners := db.NewOwnerReader(gdb)
	checker := authz.NewChecker(redisCache, log)
	checker.RegisterOwnerLookup("video", owners.Video)

	return fixture{svc: video.NewService(appCtx, checker), gameID: g.ID}
}

func TestCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id, err := f.svc.Create(ctx, alice, f.gameID, video.CreateInput{
		Title: "How to Play",
		URL:   "https://videos.test/agricola",
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "How to Play", got.Title)
	assert.Equal(t, f.gameID, got.GameID)
	assert.Equal(t, db.StatusPending, got.Status)

	url := "https://videos.test/agricola-v2"
	err = f.svc.Update(ctx, bob, id, video.UpdateInput{URL: &url})
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	require.NoError(t, f.svc.Update(ctx, alice, id, video.UpdateInput{URL: &url}))

	got, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, url, got.URL)
	assert.Equal(t, "How to Play", got.Title)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Create(ctx, alice, f.gameID, video.CreateInput{Title: "How to Play"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = f.svc.Create(ctx, alice, 404, video.CreateInput{
		Title: "How to Play", URL: "https://videos.test/x",
	})
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	first, err := f.svc.Create(ctx, alice, f.gameID, video.CreateInput{
		Title: "How to Play", URL: "https://videos.test/a",
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, alice, f.gameID, video.CreateInput{
		Title: "Review", URL: "https://videos.test/b",
	})
	require.NoError(t, err)

	videos, err := f.svc.ListByGame(ctx, f.gameID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "How to Play", videos[0].Title)

	require.NoError(t, f.svc.Delete(ctx, alice, first))

	videos, err = f.svc.ListByGame(ctx, f.gameID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Review", videos[0].Title)

	entries, err := f.svc.History(ctx, first, history.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, history.ActionCreate, entries[0].Action)
	assert.Equal(t, history.ActionDelete, entries[1].Action)
}
