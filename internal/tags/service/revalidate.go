package service

import (
	"context"

	"tagd/internal/platform/metrics"
)

// Revalidate recomputes one identity's tag against current permissions and
// reconciles the cache, so grants and revocations take effect within one
// sweep interval without a reconnect.
//
// When the fresh result matches the cached display fields nothing happens:
// no cache write, no badge push, no change event. Otherwise the cache policy
// is re-applied and the visible score tag is pushed immediately.
func (s *Service) Revalidate(ctx context.Context, identity uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Connected(identity) {
		return
	}

	cached, hadCached := s.store.Tag(identity)
	computed := s.resolve(ctx, identity)
	if hadCached {
		mergePreferences(computed, cached)
	}

	if hadCached && cached.ContentEqual(computed) {
		return
	}
	if !hadCached && computed.ContentEqual(&s.rules.Load().Default) {
		// Still default, still uncached. Nothing changed.
		return
	}

	metrics.RevalidationChanges.Inc()
	s.storeOrEvict(identity, computed)
	s.pushBadge(identity, s.visibleScoreTag(computed))

	if s.logger != nil {
		s.logger.DebugContext(ctx, "tag revalidated",
			"identity", identity,
			"score_tag", computed.ScoreTag,
		)
	}
}

// RevalidateAll sweeps every connected identity.
func (s *Service) RevalidateAll(ctx context.Context) {
	for _, identity := range s.store.ConnectedIdentities() {
		s.Revalidate(ctx, identity)
	}
	metrics.RevalidationPasses.Inc()
}

// scheduleRevalidation arms the next sweep. The chain is a scheduled closure
// that re-arms itself; the enabled flag is checked before doing work and
// before every re-arm. That check is the entire shutdown contract: armed
// timers are not cancelled, they observe the flag and stop.
func (s *Service) scheduleRevalidation() {
	if !s.enabled.Load() {
		return
	}
	s.sched.After(s.cfg.RevalidateInterval, func() {
		if !s.enabled.Load() {
			return
		}
		s.sched.NextTick(func() {
			if !s.enabled.Load() {
				return
			}
			s.RevalidateAll(context.Background())
			s.scheduleRevalidation()
		})
	})
}
