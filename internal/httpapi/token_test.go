package httpapi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/config"
	"github.com/meeplevault/catalog/internal/httpapi"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := httpapi.NewTokenIssuer(config.JWT{Secret: "test-secret", TTL: time.Hour})

	token, err := issuer.Issue(&authz.Identity{UserID: 42, Role: "admin"})
	require.NoError(t, err)

	ident, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ident.UserID)
	assert.Equal(t, "admin", ident.Role)
	assert.True(t, ident.IsAdmin())
}

func TestTokenWrongKeyRejected(t *testing.T) {
	issuer := httpapi.NewTokenIssuer(config.JWT{Secret: "test-secret", TTL: time.Hour})
	other := httpapi.NewTokenIssuer(config.JWT{Secret: "other-secret", TTL: time.Hour})

	token, err := issuer.Issue(&authz.Identity{UserID: 42, Role: "user"})
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenExpiredRejected(t *testing.T) {
	issuer := httpapi.NewTokenIssuer(config.JWT{Secret: "test-secret", TTL: -time.Minute})

	token, err := issuer.Issue(&authz.Identity{UserID: 42, Role: "user"})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}
