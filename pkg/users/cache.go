package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"orderservice/pkg/logger"
)

// KV is the slice of the redis API the cache needs. *redis.Client satisfies it.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedVerifier remembers users that were found so repeat orders skip the
// round trip. Misses and failures are never cached. A broken cache degrades
// to calling the next verifier.
type CachedVerifier struct {
	next Verifier
	kv   KV
	ttl  time.Duration
	log  *logger.Logger
}

// NewCachedVerifier wraps next with a redis backed cache.
func NewCachedVerifier(next Verifier, kv KV, ttl time.Duration, log *logger.Logger) *CachedVerifier {
	return &CachedVerifier{next: next, kv: kv, ttl: ttl, log: log}
}

// Verify implements Verifier.
func (c *CachedVerifier) Verify(ctx context.Context, userID int) (*User, error) {
	key := cacheKey(userID)

	raw, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var u User
		if err := json.Unmarshal(raw, &u); err == nil {
			return &u, nil
		}
		c.log.Warn(ctx, "discarding malformed cached user", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn(ctx, "user cache read", "key", key, "error", err)
	}

	u, err := c.next.Verify(ctx, userID)
	if err != nil || u == nil {
		return u, err
	}

	data, err := json.Marshal(u)
	if err != nil {
		return u, nil
	}
	if err := c.kv.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "user cache write", "key", key, "error", err)
	}
	return u, nil
}

func cacheKey(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}
