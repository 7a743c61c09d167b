// Package memory records audit events in process memory. It backs tests and
// deployments without a broker.
package memory

import (
	"context"
	"sync"

	"tagd/pkg/platform/audit"
)

// Publisher appends every emitted event to an in-memory log.
type Publisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func New() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Emit(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *Publisher) Events() []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audit.Event(nil), p.events...)
}
