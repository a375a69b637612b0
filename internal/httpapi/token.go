package httpapi

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/config"
)

type accessClaims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
}

// TokenIssuer signs and verifies the HS256 access tokens carried in the
// Authorization header.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(cfg config.JWT) *TokenIssuer {
	return &TokenIssuer{secret: []byte(cfg.Secret), ttl: cfg.TTL}
}

func (t *TokenIssuer) Issue(ident *authz.Identity) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: ident.UserID,
		Role:   ident.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates a token and returns the caller identity, or an error
// for anything expired, malformed or signed with the wrong key.
func (t *TokenIssuer) Parse(token string) (*authz.Identity, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, errors.New("token missing user_id")
	}
	return &authz.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}
