package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	held    map[string]bool
	addErr  error
	deletes []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (f *fakeLocker) Add(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	if f.addErr != nil {
		return false, f.addErr
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true

	return true, nil
}

func (f *fakeLocker) Delete(_ context.Context, key string) error {
	delete(f.held, key)
	f.deletes = append(f.deletes, key)

	return nil
}

func TestWithLock(t *testing.T) {
	t.Run("runs and releases when the lock is free", func(t *testing.T) {
		locker := newFakeLocker()
		called := false

		ran, err := WithLock(context.Background(), locker, "job", 0, func(context.Context) error {
			called = true
			return nil
		})

		require.NoError(t, err)
		assert.True(t, ran)
		assert.True(t, called)
		assert.Equal(t, []string{"job"}, locker.deletes)
	})

	t.Run("skips entirely when the lock is held", func(t *testing.T) {
		locker := newFakeLocker()
		locker.held["job"] = true

		ran, err := WithLock(context.Background(), locker, "job", 0, func(context.Context) error {
			t.Fatal("fn must not run while the lock is held")
			return nil
		})

		require.NoError(t, err)
		assert.False(t, ran)
		// Never release somebody else's lock.
		assert.Empty(t, locker.deletes)
	})

	t.Run("releases even when fn fails", func(t *testing.T) {
		locker := newFakeLocker()
		wantErr := errors.New("boom")

		ran, err := WithLock(context.Background(), locker, "job", 0, func(context.Context) error {
			return wantErr
		})

		assert.True(t, ran)
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, []string{"job"}, locker.deletes)
	})

	t.Run("propagates acquisition failures", func(t *testing.T) {
		locker := newFakeLocker()
		locker.addErr = errors.New("redis down")

		ran, err := WithLock(context.Background(), locker, "job", 0, func(context.Context) error {
			return nil
		})

		assert.False(t, ran)
		assert.Error(t, err)
	})

	t.Run("only one of two contenders runs", func(t *testing.T) {
		locker := newFakeLocker()
		runs := 0
		fn := func(ctx context.Context) error {
			// Re-entering under the same key must skip.
			ran, err := WithLock(ctx, locker, "job", 0, func(context.Context) error {
				runs++
				return nil
			})
			assert.False(t, ran)
			assert.NoError(t, err)

			runs++
			return nil
		}

		ran, err := WithLock(context.Background(), locker, "job", 0, fn)

		require.NoError(t, err)
		assert.True(t, ran)
		assert.Equal(t, 1, runs)
	})
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "run_lottery", LockKey("run_lottery"))
	assert.Equal(t, "update_participant-42-true", LockKey("update_participant", 42, true))
}
