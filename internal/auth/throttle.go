package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const throttleKeyPrefix = "login_fail:"

// CounterStore is the subset of the redis client the throttle needs.
type CounterStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginThrottle counts failed login attempts per username in Redis within a
// sliding window. It fails open: when Redis is unreachable or not configured
// logins proceed normally.
type LoginThrottle struct {
	store  CounterStore
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewLoginThrottle constructs a throttle. A nil store disables it.
func NewLoginThrottle(store CounterStore, limit int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{store: store, limit: limit, window: window, logger: logger}
}

// Allow reports whether a login attempt for the username may proceed.
func (t *LoginThrottle) Allow(ctx context.Context, username string) bool {
	if t == nil || t.store == nil {
		return true
	}
	count, err := t.store.Get(ctx, throttleKeyPrefix+username).Int()
	if err != nil {
		if err != redis.Nil {
			t.logger.Warn("login throttle unavailable", zap.Error(err))
		}
		return true
	}
	return count < t.limit
}

// RecordFailure increments the failed-attempt counter for the username.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) {
	if t == nil || t.store == nil {
		return
	}
	key := throttleKeyPrefix + username
	count, err := t.store.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return
	}
	if count == 1 {
		t.store.Expire(ctx, key, t.window)
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) {
	if t == nil || t.store == nil {
		return
	}
	t.store.Del(ctx, throttleKeyPrefix+username)
}
