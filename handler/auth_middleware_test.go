package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nextSpy(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing authorization header", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
		rr := httptest.NewRecorder()

		AuthMiddleware(nextSpy(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
		req.Header.Set("Authorization", "Token abc123")
		rr := httptest.NewRecorder()

		AuthMiddleware(nextSpy(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("garbage token", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rr := httptest.NewRecorder()

		AuthMiddleware(nextSpy(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})
}

func TestAdminMiddleware(t *testing.T) {
	t.Run("regular user is denied", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, "user"))
		rr := httptest.NewRecorder()

		AdminMiddleware(nextSpy(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})

	t.Run("admin passes through", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, "admin"))
		rr := httptest.NewRecorder()

		AdminMiddleware(nextSpy(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
	})
}

func TestClientIP(t *testing.T) {
	t.Run("prefers first forwarded address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, "203.0.113.7", clientIP(req))
	})

	t.Run("falls back to remote address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:54321"
		assert.Equal(t, "203.0.113.7", clientIP(req))
	})

	t.Run("normalizes ipv6 loopback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "[::1]:54321"
		assert.Equal(t, "127.0.0.1", clientIP(req))
	})
}
