// Package account handles signup and credential checks. Existence probes
// go through the registration bitmaps; the unique indexes on the users
// table stay the final arbiter at insert time.
package account

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/meeplevault/catalog/internal/app"
	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/db"
	svcErr "github.com/meeplevault/catalog/internal/errors"
)

const bcryptCost = 9

type Service struct {
	appCtx *app.AppContext
	users  *db.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  db.NewUserRepository(appCtx.DB),
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup registers a user.
//
// Behavior:
//   - email and username are probed against the registration bitmaps; a
//     set bit rejects without touching the system of record. A hash
//     collision can reject a free identifier, which surfaces exactly like
//     a taken one.
//   - the insert itself relies on the unique indexes, so a bitmap false
//     negative (impossible by construction) or a concurrent signup still
//     cannot produce duplicates.
//   - on success both bits are set, best-effort.
func (s *Service) Signup(ctx context.Context, in SignupInput) (uint64, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Username == "" {
		return 0, svcErr.InvalidArgument("email and username are required")
	}
	if len(in.Password) < 8 {
		return 0, svcErr.InvalidArgument("password must be at least 8 characters")
	}

	taken, err := s.EmailTaken(ctx, in.Email)
	if err == nil && taken {
		return 0, svcErr.InvalidArgument("email already registered")
	}
	taken, err = s.UsernameTaken(ctx, in.Username)
	if err == nil && taken {
		return 0, svcErr.InvalidArgument("username already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return 0, err
	}

	u := db.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         db.RoleUser,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, svcErr.InvalidArgument("email or username already registered")
		}
		return 0, svcErr.Map(err)
	}

	if err := s.appCtx.Cache.MarkEmailRegistered(ctx, in.Email); err != nil {
		s.appCtx.Logger.Warn("failed to mark email bitmap", "err", err)
	}
	if err := s.appCtx.Cache.MarkUsernameRegistered(ctx, in.Username); err != nil {
		s.appCtx.Logger.Warn("failed to mark username bitmap", "err", err)
	}

	return u.ID, nil
}

// EmailTaken probes the email bitmap. A set bit means "taken or collided".
func (s *Service) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.appCtx.Cache.EmailRegistered(ctx, email)
}

func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.appCtx.Cache.UsernameRegistered(ctx, username)
}

// Profile is the caller-visible slice of a user row.
type Profile struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// GetProfile loads the profile for an authenticated user id.
func (s *Service) GetProfile(ctx context.Context, userID uint64) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}, nil
}

// Authenticate verifies the credentials and returns the caller identity.
// A missing user and a bad password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*authz.Identity, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.ErrUnauthorized
		}
		return nil, svcErr.Map(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, svcErr.ErrUnauthorized
	}
	return &authz.Identity{UserID: u.ID, Role: u.Role}, nil
}
