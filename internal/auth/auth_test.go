package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelchat/internal/config"
)

var testAuthCfg = config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user-1", "u1@example.com", testAuthCfg)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, nil)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), 5*time.Second)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := GenerateToken("user-1", "", testAuthCfg)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, "other-secret", nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := testAuthCfg
	cfg.JWTExpiry = -time.Minute
	token, err := GenerateToken("user-1", "", cfg)
	require.NoError(t, err)

	_, err = ParseToken(token, cfg.JWTSecretKey)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRevoked(t *testing.T) {
	ctx := context.Background()
	blacklist := NewMemoryBlacklist()

	token, err := GenerateToken("user-1", "", testAuthCfg)
	require.NoError(t, err)
	claims, err := ValidateToken(ctx, token, testAuthCfg.JWTSecretKey, blacklist)
	require.NoError(t, err)

	require.NoError(t, blacklist.Add(ctx, claims.ID, claims.Expiry()))
	_, err = ValidateToken(ctx, token, testAuthCfg.JWTSecretKey, blacklist)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestMemoryBlacklistExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	blacklist := NewMemoryBlacklist()
	blacklist.now = func() time.Time { return now }

	require.NoError(t, blacklist.Add(ctx, "gone", now.Add(-time.Second)))
	require.NoError(t, blacklist.Add(ctx, "jti", now.Add(time.Minute)))

	revoked, err := blacklist.IsBlacklisted(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = blacklist.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = blacklist.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPasswordHash(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
}
