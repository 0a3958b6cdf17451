package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smovers/models"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessions struct {
	revoked map[string]bool
	err     error
}

func (f *fakeSessions) IsRevoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], f.err
}

func authRouter(sessions SessionChecker, roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(sessions, roles...), func(c *gin.Context) {
		id, role := CurrentAccount(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role, "email": c.GetString(CtxEmail)})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	token, err := utils.GenerateToken("acct-1", "bea@x.io", string(models.RoleBooker), time.Hour)
	require.NoError(t, err)
	sessions := &fakeSessions{revoked: map[string]bool{}}

	w := get(authRouter(sessions, models.RoleBooker), token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"acct-1"`)
	assert.Contains(t, w.Body.String(), `"role":"booker"`)

	assert.Equal(t, http.StatusUnauthorized, get(authRouter(sessions), "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(authRouter(sessions), "garbage").Code)
	assert.Equal(t, http.StatusForbidden, get(authRouter(sessions, models.RoleDriver, models.RoleHelper), token).Code)
	assert.Equal(t, http.StatusOK, get(authRouter(sessions), token).Code)

	sessions.revoked[token] = true
	assert.Equal(t, http.StatusUnauthorized, get(authRouter(sessions), token).Code)
}

func TestJWTAuthMiddlewareFailsOpenOnStoreOutage(t *testing.T) {
	token, err := utils.GenerateToken("acct-1", "dee@x.io", string(models.RoleDriver), time.Hour)
	require.NoError(t, err)
	sessions := &fakeSessions{err: errors.New("redis: connection refused")}
	assert.Equal(t, http.StatusOK, get(authRouter(sessions, models.RoleDriver), token).Code)
}

func TestJWTAuthMiddlewareRejectsUnknownRole(t *testing.T) {
	token, err := utils.GenerateToken("acct-1", "x@x.io", "admin", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(authRouter(&fakeSessions{}), token).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	// Limits are per client.
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2"))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/me", func(c *gin.Context) {
		_, ok := c.Get("logger")
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
