package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by tests. Nothing runs until the test calls
// Tick or Advance, so retry chains and revalidation loops can be stepped
// deterministically.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []manualTimer
}

type manualTimer struct {
	due time.Time
	fn  func()
}

// NewManual starts the fake clock at an arbitrary fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the fake clock reading.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) NextTick(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

func (m *Manual) After(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.timers = append(m.timers, manualTimer{due: m.now.Add(d), fn: fn})
	m.mu.Unlock()
}

// Tick runs everything currently queued for the next tick. Closures enqueued
// while running are left for the following Tick, matching the production
// loop.
func (m *Manual) Tick() {
	m.mu.Lock()
	batch := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
}

// Advance moves the clock forward, fires every timer due in that window in
// order, and then runs a tick.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	deadline := m.now

	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].due.Before(m.timers[j].due)
	})
	var due []func()
	rest := m.timers[:0]
	for _, t := range m.timers {
		if !t.due.After(deadline) {
			due = append(due, t.fn)
		} else {
			rest = append(rest, t)
		}
	}
	m.timers = rest
	m.queue = append(m.queue, due...)
	m.mu.Unlock()

	m.Tick()
}

// PendingTimers reports how many delayed closures are armed.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
