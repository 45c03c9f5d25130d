package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Chamindu77/SFBS-Backend/internal/auth"
)

const secret = "s3cret"

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeySub))
	})
	r.GET("/admin", JWTAuth(secret), RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/users/:userId", JWTAuth(secret), SelfOrRole("userId", auth.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.CreateAccessToken(secret, sub, role, sub+"@example.com", "", time.Minute)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	return "Bearer " + tok
}

func do(r http.Handler, path, authz string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTAuth(t *testing.T) {
	r := newEngine()

	if code := do(r, "/me", ""); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code := do(r, "/me", "Bearer garbage"); code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", code)
	}
	if code := do(r, "/me", token(t, "u-1", auth.RoleUser)); code != http.StatusOK {
		t.Fatalf("valid token: %d", code)
	}
}

func TestRequireRoleAndSelf(t *testing.T) {
	r := newEngine()
	user := token(t, "u-1", auth.RoleUser)
	admin := token(t, "a-1", auth.RoleAdmin)

	if code := do(r, "/admin", user); code != http.StatusForbidden {
		t.Fatalf("user on admin route: %d", code)
	}
	if code := do(r, "/admin", admin); code != http.StatusNoContent {
		t.Fatalf("admin on admin route: %d", code)
	}
	if code := do(r, "/users/u-1", user); code != http.StatusNoContent {
		t.Fatalf("self: %d", code)
	}
	if code := do(r, "/users/u-2", user); code != http.StatusForbidden {
		t.Fatalf("other user: %d", code)
	}
	if code := do(r, "/users/u-2", admin); code != http.StatusNoContent {
		t.Fatalf("admin on other user: %d", code)
	}
}
