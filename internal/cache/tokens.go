package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistToken records a revoked token ID until its natural expiry.
// Without Redis revocation is a no-op; short access token lifetimes bound
// the exposure.
func BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether the token ID has been revoked.
func IsTokenBlacklisted(ctx context.Context, jti string) bool {
	if client == nil {
		return false
	}
	err := client.Get(ctx, BlacklistKey(jti)).Err()
	return err == nil
}

// MarkViewed records that an IP viewed a post, returning true if this is the
// first view inside the dedup window. Without Redis every view counts.
func MarkViewed(ctx context.Context, postID uint, ip string) (bool, error) {
	if client == nil {
		return true, nil
	}
	ok, err := client.SetNX(ctx, ViewKey(postID, ip), "1", ViewDedupTTL).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, err
	}
	return ok, nil
}
