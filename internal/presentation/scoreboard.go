// Package presentation is where resolved score tags land. The real delivery
// to game clients happens outside this service; the scoreboard here is the
// authoritative record of what has been applied, and it owns the dedupe rule
// that keeps redundant pushes from triggering refresh broadcasts.
package presentation

import (
	"log/slog"
	"sync"
)

// BadgeSink receives the scoreboard badge text for an identity. SetBadge is
// idempotent: implementations skip the push when the value is already
// applied, and signal one refresh per actual change.
type BadgeSink interface {
	SetBadge(identity uint64, text string)
}

// Scoreboard is the in-memory badge sink.
type Scoreboard struct {
	mu        sync.Mutex
	badges    map[uint64]string
	refreshes uint64

	logger    *slog.Logger
	onRefresh func(identity uint64, text string)
}

// Option configures a Scoreboard.
type Option func(*Scoreboard)

// WithLogger sets a logger for badge changes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scoreboard) {
		s.logger = logger
	}
}

// WithRefreshFunc installs a callback invoked once per actual badge change.
// Transports hook their broadcast here.
func WithRefreshFunc(fn func(identity uint64, text string)) Option {
	return func(s *Scoreboard) {
		s.onRefresh = fn
	}
}

func New(opts ...Option) *Scoreboard {
	s := &Scoreboard{badges: make(map[uint64]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBadge applies the badge text. A push carrying the already-applied value
// is dropped without a refresh.
func (s *Scoreboard) SetBadge(identity uint64, text string) {
	s.mu.Lock()
	current, known := s.badges[identity]
	if known && current == text {
		s.mu.Unlock()
		return
	}
	s.badges[identity] = text
	s.refreshes++
	onRefresh := s.onRefresh
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("badge applied", "identity", identity, "badge", text)
	}
	if onRefresh != nil {
		onRefresh(identity, text)
	}
}

// Badge returns the currently applied badge for an identity.
func (s *Scoreboard) Badge(identity uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.badges[identity]
	return text, ok
}

// Remove forgets the applied badge, typically on disconnect.
func (s *Scoreboard) Remove(identity uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.badges, identity)
}

// Refreshes counts actual badge changes since construction.
func (s *Scoreboard) Refreshes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}
