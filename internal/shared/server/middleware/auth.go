package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	userRoleKey = "userRole"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// Authenticate resolves a bearer token into an identity when one is present.
// It never rejects a request; RequireAuth does that for protected routes.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || verifier == nil {
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" {
			c.Next()
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAuth rejects requests without a verified identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c); !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the caller identity set by Authenticate.
func IdentityFromContext(c *gin.Context) (identity.Identity, bool) {
	id := UserIDFromContext(c)
	if id == "" {
		return identity.Identity{}, false
	}
	val, _ := c.Get(userRoleKey)
	role, _ := val.(identity.Role)
	return identity.Identity{UserID: id, Role: role}, true
}

// OptionalIdentity returns the caller identity or nil for anonymous requests.
func OptionalIdentity(c *gin.Context) *identity.Identity {
	id, ok := IdentityFromContext(c)
	if !ok {
		return nil
	}
	return &id
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
