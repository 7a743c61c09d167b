// Package oracle answers "does this identity hold this permission or group".
//
// The permission backend itself lives outside this service; grants may attach
// to an identity at any time after it connects, which is why callers never
// treat an answer as final. Implementations must be safe for repeated
// synchronous calls.
package oracle

import (
	"context"
	"sync"
)

// PermissionOracle reports whether an identity currently holds a permission
// or group token. Answers may change over time.
type PermissionOracle interface {
	HasPermission(ctx context.Context, identity uint64, token string) bool
}

// Func adapts a plain function to a PermissionOracle.
type Func func(ctx context.Context, identity uint64, token string) bool

func (f Func) HasPermission(ctx context.Context, identity uint64, token string) bool {
	return f(ctx, identity, token)
}

// Static is a fixed in-config grant table, for deployments without an
// external permission backend. The table may be swapped wholesale when the
// rules file is reloaded.
type Static struct {
	mu     sync.RWMutex
	grants map[uint64]map[string]struct{}
}

// NewStatic builds a static oracle from identity → token list.
func NewStatic(grants map[uint64][]string) *Static {
	s := &Static{}
	s.Replace(grants)
	return s
}

// Replace swaps the grant table for a new one.
func (s *Static) Replace(grants map[uint64][]string) {
	m := make(map[uint64]map[string]struct{}, len(grants))
	for identity, tokens := range grants {
		set := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			set[t] = struct{}{}
		}
		m[identity] = set
	}
	s.mu.Lock()
	s.grants = m
	s.mu.Unlock()
}

func (s *Static) HasPermission(_ context.Context, identity uint64, token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[identity][token]
	return ok
}

// Composite asks each oracle in order and reports true on the first grant.
// Nil members are skipped.
type Composite struct {
	oracles []PermissionOracle
}

func NewComposite(oracles ...PermissionOracle) *Composite {
	out := make([]PermissionOracle, 0, len(oracles))
	for _, o := range oracles {
		if o != nil {
			out = append(out, o)
		}
	}
	return &Composite{oracles: out}
}

func (c *Composite) HasPermission(ctx context.Context, identity uint64, token string) bool {
	for _, o := range c.oracles {
		if o.HasPermission(ctx, identity, token) {
			return true
		}
	}
	return false
}
