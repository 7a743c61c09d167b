// Package store holds the in-memory per-identity state: cached tags and
// connection records. Nothing here survives a restart; that is deliberate.
package store

import (
	"sync"
	"time"

	"tagd/internal/tags/models"
)

// Memory is the process-wide identity state. Chat arrives from transport
// goroutines while the revalidation loop runs on the scheduler goroutine, so
// every access is serialized behind one mutex.
//
// A tag entry exists only for identities whose resolved tag differs from the
// default; the caching policy itself lives in the service layer.
type Memory struct {
	mu     sync.Mutex
	tags   map[uint64]*models.Tag
	joined map[uint64]time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tags:   make(map[uint64]*models.Tag),
		joined: make(map[uint64]time.Time),
	}
}

// Connect records a join timestamp. Reconnects overwrite the previous one.
func (m *Memory) Connect(identity uint64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined[identity] = at
}

// Disconnect drops both the join record and any cached tag.
func (m *Memory) Disconnect(identity uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.joined, identity)
	delete(m.tags, identity)
}

// JoinedAt returns when the identity connected. The second result is false
// for identities that are not connected.
func (m *Memory) JoinedAt(identity uint64) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.joined[identity]
	return at, ok
}

// Connected reports whether the identity has a live join record.
func (m *Memory) Connected(identity uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.joined[identity]
	return ok
}

// ConnectedIdentities snapshots the currently connected identities.
func (m *Memory) ConnectedIdentities() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint64, 0, len(m.joined))
	for identity := range m.joined {
		out = append(out, identity)
	}
	return out
}

// Tag returns a copy of the cached tag, if any. Callers get an independent
// clone; writing changes back requires SetTag.
func (m *Memory) Tag(identity uint64) (*models.Tag, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[identity]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// SetTag stores a copy of the tag as the cache entry for the identity.
func (m *Memory) SetTag(identity uint64, t *models.Tag) {
	if t == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[identity] = t.Clone()
}

// DeleteTag evicts the cache entry, if any.
func (m *Memory) DeleteTag(identity uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tags, identity)
}

// Clear drops all state. Used on shutdown.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = make(map[uint64]*models.Tag)
	m.joined = make(map[uint64]time.Time)
}
