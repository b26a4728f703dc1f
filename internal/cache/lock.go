package cache

import (
	"context"
)

// AcquireLock takes a best-effort distributed lock via SETNX. It returns true
// when the lock was acquired. When Redis is unavailable the lock always
// succeeds; single-instance deployments do not need coordination.
func AcquireLock(ctx context.Context, name string) (bool, error) {
	if client == nil {
		return true, nil
	}
	ok, err := client.SetNX(ctx, LockKey(name), "1", LockTTL).Result()
	if err != nil {
		// Fail open: a broken Redis should not stop background work.
		return true, nil
	}
	return ok, nil
}

// ReleaseLock drops the named lock. Safe to call when Redis is unavailable.
func ReleaseLock(ctx context.Context, name string) {
	if client != nil {
		client.Del(ctx, LockKey(name))
	}
}
