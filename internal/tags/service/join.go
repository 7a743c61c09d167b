package service

import (
	"context"

	"tagd/internal/platform/metrics"
	"tagd/internal/tags/models"
	"tagd/pkg/platform/audit"
)

// Connect registers a joining identity. Any stale cache entry is dropped so
// a default resolved before the permission backend finished loading cannot
// lock in, and the first apply attempt is scheduled with force.
func (s *Service) Connect(ctx context.Context, identity uint64) {
	s.mu.Lock()
	s.store.Connect(identity, s.now())
	s.store.DeleteTag(identity)
	s.mu.Unlock()

	s.scheduleApply(identity, 1, true)
	s.emit(ctx, audit.Event{Action: audit.EventPlayerConnect, Identity: identity})
}

// Disconnect drops all state for the identity. In-flight callbacks for it
// degrade to no-ops.
func (s *Service) Disconnect(ctx context.Context, identity uint64) {
	s.mu.Lock()
	s.store.Disconnect(identity)
	s.mu.Unlock()

	s.emit(ctx, audit.Event{Action: audit.EventPlayerDisconnect, Identity: identity})
}

// Spawn re-applies the tag without forcing: the cached entry is good enough,
// and an empty cache recomputes anyway.
func (s *Service) Spawn(_ context.Context, identity uint64) {
	if !s.store.Connected(identity) {
		return
	}
	s.scheduleApply(identity, 1, false)
}

// TeamChange re-applies with force so the badge updates immediately rather
// than on the next spawn or sweep.
func (s *Service) TeamChange(_ context.Context, identity uint64) {
	if !s.store.Connected(identity) {
		return
	}
	s.scheduleApply(identity, 1, true)
}

// ReapplyAll force-refreshes every connected identity, e.g. after a rule
// reload.
func (s *Service) ReapplyAll(ctx context.Context) {
	for _, identity := range s.store.ConnectedIdentities() {
		tag := s.GetOrCreate(ctx, identity, true)
		s.pushBadge(identity, s.visibleScoreTag(tag))
	}
}

// ReloadRules swaps in a new snapshot and force-reapplies it to everyone
// connected, the same path the reload admin command takes.
func (s *Service) ReloadRules(ctx context.Context, rs *models.RuleSet) {
	s.SetRules(rs)
	s.ReapplyAll(ctx)
	s.emit(ctx, audit.Event{Action: audit.EventRulesReloaded})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "rules reloaded", "rules", len(s.Rules().Rules))
	}
}

// scheduleApply runs one attempt of the apply-on-join machine on the next
// tick. An attempt that cannot apply yet reschedules itself after the retry
// delay until the budget runs out; retries always force, matching the
// warm-up intent of catching grants that load late.
func (s *Service) scheduleApply(identity uint64, attempt int, force bool) {
	s.sched.NextTick(func() {
		if !s.enabled.Load() {
			return
		}
		if s.tryApply(context.Background(), identity, force) {
			return
		}
		if attempt >= s.cfg.ApplyMaxAttempts {
			metrics.ApplyAbandoned.Inc()
			if s.logger != nil {
				s.logger.Warn("apply-on-join abandoned",
					"identity", identity,
					"attempts", attempt,
				)
			}
			return
		}
		metrics.ApplyRetries.Inc()
		s.sched.After(s.cfg.ApplyRetryDelay, func() {
			if !s.enabled.Load() {
				return
			}
			s.scheduleApply(identity, attempt+1, true)
		})
	})
}

// tryApply resolves and pushes the badge for one identity. It reports false
// when the identity is not (or not yet) applicable so the caller may retry.
func (s *Service) tryApply(ctx context.Context, identity uint64, force bool) bool {
	joinedAt, connected := s.store.JoinedAt(identity)
	if !connected {
		return false
	}
	if s.now().Sub(joinedAt) <= s.cfg.WarmupWindow {
		force = true
	}

	tag := s.GetOrCreate(ctx, identity, force)
	s.pushBadge(identity, s.visibleScoreTag(tag))
	return true
}

// WithinWarmup reports whether the identity connected recently enough that
// reads should still be forced.
func (s *Service) WithinWarmup(identity uint64) bool {
	joinedAt, connected := s.store.JoinedAt(identity)
	if !connected {
		return false
	}
	return s.now().Sub(joinedAt) <= s.cfg.WarmupWindow
}

// Connected reports whether the identity has a live join record.
func (s *Service) Connected(identity uint64) bool {
	return s.store.Connected(identity)
}
