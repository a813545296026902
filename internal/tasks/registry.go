// Package tasks defines the recurring jobs the worker runs: lottery
// placement and membership reminders. Every job runs under an advisory
// cache lock so overlapping worker ticks, or a second worker, never
// execute the same job concurrently.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mitoc/trips-api/internal/cache"
)

// Handler is one unit of background work.
type Handler func(ctx context.Context) error

type task struct {
	name    string
	ttl     time.Duration
	handler Handler
}

// Registry holds the worker's job definitions.
type Registry struct {
	mu     sync.RWMutex
	locker cache.Locker
	tasks  []task
}

func NewRegistry(locker cache.Locker) *Registry {
	return &Registry{
		locker: locker,
	}
}

// Register adds a job. A zero ttl means cache.DefaultLockTTL.
func (r *Registry) Register(name string, ttl time.Duration, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = append(r.tasks, task{name: name, ttl: ttl, handler: handler})
}

// RunAll executes every registered job once, each under its own lock.
// A held lock skips the job; a failed job is logged and does not stop
// the others.
func (r *Registry) RunAll(ctx context.Context) {
	r.mu.RLock()
	pending := make([]task, len(r.tasks))
	copy(pending, r.tasks)
	r.mu.RUnlock()

	for _, t := range pending {
		if ctx.Err() != nil {
			return
		}

		ran, err := cache.WithLock(ctx, r.locker, cache.LockKey(t.name), t.ttl, t.handler)
		if err != nil {
			zap.L().Error("task failed",
				zap.String("task", t.name),
				zap.Error(fmt.Errorf("cache.WithLock -> %w", err)))
			continue
		}
		if ran {
			zap.L().Info("task completed", zap.String("task", t.name))
		}
	}
}
