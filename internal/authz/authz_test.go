package authz_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/config"
	svcErr "github.com/meeplevault/catalog/internal/errors"
)

type checkerFixture struct {
	checker *authz.Checker
	cache   *cache.Cache
	lookups int // SoR lookup invocations
}

func setupChecker(t *testing.T, owners map[uint64]uint64) *checkerFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	c := cache.New(cfg)
	t.Cleanup(func() { c.Close() })

	f := &checkerFixture{cache: c}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.checker = authz.NewChecker(c, log)
	f.checker.RegisterOwnerLookup("game", func(ctx context.Context, id uint64) (uint64, error) {
		f.lookups++
		owner, ok := owners[id]
		if !ok {
			return 0, gorm.ErrRecordNotFound
		}
		return owner, nil
	})
	return f
}

func TestCanModifyAdminSkipsStores(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{1: 10})

	ok, err := f.checker.CanModify(ctx, &authz.Identity{UserID: 99, Role: "admin"}, "game", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, f.lookups)
}

func TestCanModifyAnonymous(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{1: 10})

	ok, err := f.checker.CanModify(ctx, nil, "game", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, f.lookups)
}

// TestCanModifyCacheMissPopulates verifies the read-through: first check
// hits the SoR and populates the ownership hash, the second is served
// entirely from the cache.
func TestCanModifyCacheMissPopulates(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{1: 10})

	owner := &authz.Identity{UserID: 10, Role: "user"}
	ok, err := f.checker.CanModify(ctx, owner, "game", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.lookups)

	ok, err = f.checker.CanModify(ctx, owner, "game", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.lookups)

	// a different user against the now-cached entry
	ok, err = f.checker.CanModify(ctx, &authz.Identity{UserID: 11, Role: "user"}, "game", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, f.lookups)
}

func TestCanModifyCacheHit(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{})

	// pre-populated hash entry, no SoR data behind it
	require.NoError(t, f.cache.OwnerSet(ctx, "game", 5, 42))

	ok, err := f.checker.CanModify(ctx, &authz.Identity{UserID: 42, Role: "user"}, "game", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, f.lookups)
}

func TestCanModifyMissingEntity(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{})

	_, err := f.checker.CanModify(ctx, &authz.Identity{UserID: 10, Role: "user"}, "game", 404)
	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestCanModifyUnknownEntityType(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{})

	_, err := f.checker.CanModify(ctx, &authz.Identity{UserID: 10, Role: "user"}, "expansion", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestCanModifyUnavailableSoR(t *testing.T) {
	ctx := context.Background()
	f := setupChecker(t, map[uint64]uint64{})
	f.checker.RegisterOwnerLookup("game", func(context.Context, uint64) (uint64, error) {
		return 0, errors.New("connection refused")
	})

	_, err := f.checker.CanModify(ctx, &authz.Identity{UserID: 10, Role: "user"}, "game", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr.ErrUnavailable)
}
