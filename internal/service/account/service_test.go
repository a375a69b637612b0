package account_test

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
	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/config"
	"github.com/meeplevault/catalog/internal/db"
	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/service/account"
)

func setup(t *testing.T) *account.Service {
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

	require.NoError(t, gdb.AutoMigrate(&db.User{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.New(cfg)
	t.Cleanup(func() { redisCache.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, redisCache, nil, nil, log)
	return account.NewService(appCtx)
}

func TestSignupAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	id, err := svc.Signup(ctx, account.SignupInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	// both bitmaps are set
	taken, err := svc.EmailTaken(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = svc.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)

	ident, err := svc.Authenticate(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, id, ident.UserID)
	assert.Equal(t, db.RoleUser, ident.Role)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	id, err := svc.Signup(ctx, account.SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, db.RoleUser, profile.Role)

	_, err = svc.GetProfile(ctx, 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

// TestSignupRejectsTaken: the second signup with the same email or
// username is rejected by the bitmap probe.
func TestSignupRejectsTaken(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	_, err := svc.Signup(ctx, account.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, account.SignupInput{
		Username: "alice2", Email: "alice@example.com", Password: "correct horse",
	})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.Signup(ctx, account.SignupInput{
		Username: "alice", Email: "alice2@example.com", Password: "correct horse",
	})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	_, err := svc.Signup(ctx, account.SignupInput{Username: "alice", Password: "correct horse"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.Signup(ctx, account.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "short",
	})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}
