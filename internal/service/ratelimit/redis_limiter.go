package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow is a fixed-window counter shared by every instance pointing at the same Redis.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// RedisConfig holds the connection settings for RedisWindow.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisClient opens a client and pings it.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewRedisWindow allows limit calls per key per window.
func NewRedisWindow(client *redis.Client, prefix string, limit int64, window time.Duration) *RedisWindow {
	if prefix == "" {
		prefix = "perpdash:rl"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindow{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *RedisWindow) windowKey(key string) string {
	slot := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
}

// Allow increments the counter of the current window and compares it with the limit.
func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	k := l.windowKey(key)
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire: %w", err)
		}
	}
	return n <= l.limit, nil
}

var _ Limiter = (*RedisWindow)(nil)
