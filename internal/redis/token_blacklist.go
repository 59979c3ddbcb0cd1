package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"reelchat/internal/auth"
	"reelchat/internal/config"
)

const blacklistKeyPrefix = "reelchat:bl:jti:"

// redisTokenBlacklist 是 auth.TokenBlacklist 接口的 Redis 实现
type redisTokenBlacklist struct {
	client *redis.Client
}

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisTokenBlacklist 创建一个新的 redisTokenBlacklist 实例。
func NewRedisTokenBlacklist(client *redis.Client) auth.TokenBlacklist {
	return &redisTokenBlacklist{client: client}
}

func blacklistKey(jti string) string {
	return blacklistKeyPrefix + jti
}

// Add stores jti with a TTL equal to the token's remaining lifetime.
func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// 已过期的令牌无需加入黑名单
		return nil
	}
	if err := r.client.Set(ctx, blacklistKey(jti), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist jti %s: %w", jti, err)
	}
	return nil
}

func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, blacklistKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blacklist for jti %s: %w", jti, err)
	}
	return true, nil
}

// OpenBlacklist returns the Redis blacklist when an address is configured
// and a process-local one otherwise. Tokens revoked on one instance are only
// honored by the others with Redis.
func OpenBlacklist(ctx context.Context, cfg config.RedisConfig) (auth.TokenBlacklist, func(), error) {
	if cfg.Addr == "" {
		slog.Warn("redis address not configured, using in-memory token blacklist")
		return auth.NewMemoryBlacklist(), func() {}, nil
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to redis", "addr", cfg.Addr)
	return NewRedisTokenBlacklist(client), func() { _ = client.Close() }, nil
}
