package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultLockTTL bounds how long a crashed holder can strand a lock.
const DefaultLockTTL = 600 * time.Second

// Locker is the subset of cache operations the mutex needs.
type Locker interface {
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// WithLock runs fn at most once concurrently per key. If the lock is
// already held the work is skipped entirely (ran == false, no error):
// the holder is trusted to finish it, and we never queue or retry. The
// lock is released even when fn fails; a skipped call never releases,
// since the holder does its own cleanup.
func WithLock(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) (ran bool, err error) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	acquired, err := locker.Add(ctx, key, "true", ttl)
	if err != nil {
		return false, fmt.Errorf("locker.Add -> %w", err)
	}
	if !acquired {
		zap.L().Info("lock already held, skipping", zap.String("key", key))
		return false, nil
	}

	defer func() {
		if deleteErr := locker.Delete(ctx, key); deleteErr != nil {
			// The TTL will clean up eventually; losing a release is not fatal.
			zap.L().Warn("failed to release lock", zap.String("key", key), zap.Error(deleteErr))
		}
	}()

	return true, fn(ctx)
}

// LockKey builds a lock name from a template of the unit of work plus its
// arguments, so jobs targeting the same resource serialize even when
// scheduled independently.
func LockKey(task string, args ...interface{}) string {
	key := task
	for _, arg := range args {
		key = fmt.Sprintf("%v-%v", key, arg)
	}

	return key
}
