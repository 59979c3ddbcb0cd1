package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelchat/internal/auth"
	"reelchat/internal/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "secret", JWTExpiry: time.Hour}
	blacklist := auth.NewMemoryBlacklist()

	var seen string
	handler := AuthMiddleware(cfg, blacklist)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := auth.GenerateToken("user-1", "u@example.com", cfg)
	require.NoError(t, err)

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Token "+token))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer not-a-jwt"))

	assert.Equal(t, http.StatusNoContent, call("Bearer "+token))
	assert.Equal(t, "user-1", seen)

	claims, err := auth.ParseToken(token, cfg.JWTSecretKey)
	require.NoError(t, err)
	require.NoError(t, blacklist.Add(context.Background(), claims.ID, claims.Expiry()))
	assert.Equal(t, http.StatusUnauthorized, call("bearer "+token))
}
