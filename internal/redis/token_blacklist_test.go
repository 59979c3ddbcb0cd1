package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelchat/internal/auth"
	"reelchat/internal/config"
)

func TestBlacklistKeyIsNamespaced(t *testing.T) {
	assert.Equal(t, "reelchat:bl:jti:abc", blacklistKey("abc"))
}

func TestOpenBlacklistWithoutAddrIsInMemory(t *testing.T) {
	ctx := context.Background()
	blacklist, closeFn, err := OpenBlacklist(ctx, config.RedisConfig{})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &auth.MemoryBlacklist{}, blacklist)

	require.NoError(t, blacklist.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
