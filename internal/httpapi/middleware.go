package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meeplevault/catalog/internal/authz"
)

const identityKey = "identity"

// LoadIdentity parses a bearer token when one is present and stores the
// resulting identity in the gin context. Requests without a token pass
// through as anonymous; an invalid token is rejected outright.
func LoadIdentity(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		ident, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. Must run after LoadIdentity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// identityFrom returns the caller identity, or nil for anonymous.
func identityFrom(c *gin.Context) *authz.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*authz.Identity)
	return ident
}
