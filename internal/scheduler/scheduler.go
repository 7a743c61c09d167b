// Package scheduler provides the deferred-execution service the tag core
// runs on. The core never starts its own timer threads: it hands closures to
// a Scheduler and the production implementation runs them all on one
// goroutine, which is what makes per-identity mutation effectively
// serialized.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler defers work to the next tick or to a point in the future.
// Implementations must run all deferred work on a single goroutine.
type Scheduler interface {
	// NextTick runs fn on the next tick of the loop.
	NextTick(fn func())
	// After runs fn on the first tick at or after d from now.
	After(d time.Duration, fn func())
}

// TickLoop is the production Scheduler: a fixed-interval tick driven by a
// single goroutine. Closures enqueued during a tick run on the following
// tick, never reentrantly.
type TickLoop struct {
	interval time.Duration

	mu    sync.Mutex
	queue []func()
}

// NewTickLoop builds a loop with the given tick interval.
func NewTickLoop(interval time.Duration) *TickLoop {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &TickLoop{interval: interval}
}

// NextTick enqueues fn for the next tick. Safe from any goroutine.
func (l *TickLoop) NextTick(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// After arms a timer that enqueues fn when it fires. The closure still runs
// on the tick goroutine, not the timer goroutine.
func (l *TickLoop) After(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d <= 0 {
		l.NextTick(fn)
		return
	}
	time.AfterFunc(d, func() { l.NextTick(fn) })
}

// Run drives the loop until ctx is cancelled. Work queued after cancellation
// is dropped; deferred tasks are expected to check their own liveness flags,
// so dropping is safe.
func (l *TickLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, fn := range l.drain() {
				fn()
			}
		}
	}
}

func (l *TickLoop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}
