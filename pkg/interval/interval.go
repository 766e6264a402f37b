// Package interval provides a start/stoppable timer-driven task handle.
// Each loop in the engine owns one runner with its own configuration, so
// shutdown and tests never depend on ambient global timers.
package interval

import (
	"context"
	"sync"
	"time"

	"github.com/classpulse/notification-engine/pkg/logger"
)

// TickFunc runs one tick. Errors are logged, never propagated: a tick
// failure must not stop the loop.
type TickFunc func(ctx context.Context) error

type Runner struct {
	name     string
	interval time.Duration
	tick     TickFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewRunner(name string, interval time.Duration, tick TickFunc) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		tick:     tick,
	}
}

// Start launches the loop in its own goroutine. Starting a running runner
// is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	r.wg.Add(1)
	go r.loop(ctx)
	logger.Info("interval runner started", "name", r.name, "interval", r.interval.String())
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				logger.Error("tick failed", "name", r.name, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	logger.Info("interval runner stopped", "name", r.name)
}
