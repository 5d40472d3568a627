package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/identity"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer, err := auth.NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	router := gin.New()
	router.Use(Authenticate(signer))
	router.GET("/open", func(c *gin.Context) {
		if id := OptionalIdentity(c); id != nil {
			c.String(http.StatusOK, string(id.Role))
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	router.GET("/closed", RequireAuth(), func(c *gin.Context) {
		id, _ := IdentityFromContext(c)
		c.String(http.StatusOK, id.UserID)
	})
	return router, signer
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	router, signer := newAuthRouter(t)
	token, err := signer.Sign("user-7", "u7@test.dev", identity.RoleJobSeeker)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "user-7" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestOptionalRouteIgnoresInvalidToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "anonymous" {
		t.Fatalf("expected anonymous, got %q", resp.Body.String())
	}
}
