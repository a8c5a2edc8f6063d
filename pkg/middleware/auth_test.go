package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	jwtutil "github.com/adilet-s/spacebook/pkg/jwt"
	"github.com/adilet-s/spacebook/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler())

	t.Run("rejects a missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := jwtutil.GenerateToken("user-1", "a@b.c", "user", "other", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts a valid token", func(t *testing.T) {
		token, err := jwtutil.GenerateToken("user-1", "a@b.c", "user", "secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("admin")(okHandler())

	withClaims := func(role string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		claims := &jwtutil.Claims{UserID: "user-1", Role: role}
		return req.WithContext(context.WithValue(req.Context(), UserContextKey, claims))
	}

	t.Run("rejects an unauthenticated request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects the wrong role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withClaims("user"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("passes the matching role through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withClaims("admin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
