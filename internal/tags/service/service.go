// Package service owns the per-identity tag state: resolution through the
// cache, the apply-on-join retry machine, periodic revalidation, and the
// attribute mutators. All state lives in memory and dies with the process.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tagd/internal/chat"
	"tagd/internal/oracle"
	"tagd/internal/platform/metrics"
	"tagd/internal/platform/middleware"
	"tagd/internal/presentation"
	"tagd/internal/scheduler"
	"tagd/internal/tags/models"
	"tagd/internal/tags/resolver"
	"tagd/internal/tags/store"
	"tagd/pkg/platform/audit"
)

// Config carries the tuning knobs for apply retries and revalidation. The
// defaults are tuned for permission backends that load grants asynchronously
// for tens of seconds after a player connects.
type Config struct {
	// WarmupWindow is the span after connect during which every cache read
	// is forced, tolerating slow external permission loads.
	WarmupWindow time.Duration
	// ApplyRetryDelay is the pause between apply-on-join attempts.
	ApplyRetryDelay time.Duration
	// ApplyMaxAttempts bounds the retry chain; exhaustion is not an error,
	// the next lifecycle event may still succeed.
	ApplyMaxAttempts int
	// RevalidateInterval paces the permission revalidation sweep.
	RevalidateInterval time.Duration
}

// DefaultConfig mirrors the tolerances of the known-slow permission backend:
// 200 attempts at 200ms covers the same 40s as the warm-up window.
func DefaultConfig() Config {
	return Config{
		WarmupWindow:       40 * time.Second,
		ApplyRetryDelay:    200 * time.Millisecond,
		ApplyMaxAttempts:   200,
		RevalidateInterval: time.Second,
	}
}

// Service resolves, caches and republishes player tags.
type Service struct {
	store  *store.Memory
	oracle oracle.PermissionOracle
	sink   presentation.BadgeSink
	sched  scheduler.Scheduler

	rules atomic.Pointer[models.RuleSet]

	hooks    *chat.Hooks
	pipeline *chat.Pipeline

	// mu serializes compound read-modify-write sequences. Individual store
	// accesses are already mutex-guarded; this lock keeps a mutator's
	// read, notify, write bracket atomic against concurrent transports.
	mu sync.Mutex

	enabled atomic.Bool

	cfg       Config
	logger    *slog.Logger
	publisher audit.Publisher
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConfig overrides the retry and revalidation tuning.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithAuditPublisher enables audit event emission.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithHooks substitutes the hook registry shared with the pipeline.
func WithHooks(h *chat.Hooks) Option {
	return func(s *Service) {
		s.hooks = h
	}
}

// WithClock injects the time source. Tests pair this with the manual
// scheduler.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New builds the service. The rule set starts empty; call SetRules before
// Start.
func New(st *store.Memory, o oracle.PermissionOracle, sink presentation.BadgeSink, sched scheduler.Scheduler, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if o == nil {
		return nil, fmt.Errorf("permission oracle is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("badge sink is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}

	s := &Service{
		store:  st,
		oracle: o,
		sink:   sink,
		sched:  sched,
		cfg:    DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hooks == nil {
		s.hooks = chat.NewHooks(chat.WithHooksLogger(s.logger))
	}
	s.pipeline = chat.NewPipeline(s.hooks, chat.WithLogger(s.logger))
	s.rules.Store(&models.RuleSet{})
	return s, nil
}

// Hooks exposes the observer registration surface.
func (s *Service) Hooks() *chat.Hooks {
	return s.hooks
}

// Pipeline exposes the message pipeline.
func (s *Service) Pipeline() *chat.Pipeline {
	return s.pipeline
}

// Rules returns the current immutable rule-set snapshot.
func (s *Service) Rules() *models.RuleSet {
	return s.rules.Load()
}

// SetRules swaps in a new rule-set snapshot. In-flight resolutions keep the
// snapshot they already read.
func (s *Service) SetRules(rs *models.RuleSet) {
	if rs == nil {
		rs = &models.RuleSet{}
	}
	s.rules.Store(rs)
}

// Start arms the deferred machinery: an initial forced re-apply on the next
// tick and the self-rescheduling revalidation loop.
func (s *Service) Start() {
	if !s.enabled.CompareAndSwap(false, true) {
		return
	}
	s.sched.NextTick(func() { s.ReapplyAll(context.Background()) })
	s.scheduleRevalidation()
	if s.logger != nil {
		s.logger.Info("tag service started",
			"revalidate_interval", s.cfg.RevalidateInterval,
			"warmup_window", s.cfg.WarmupWindow,
		)
	}
}

// Stop clears the liveness flag and drops all in-memory state. Pending
// deferred callbacks observe the flag and become no-ops; nothing needs
// explicit cancellation.
func (s *Service) Stop() {
	if !s.enabled.CompareAndSwap(true, false) {
		return
	}
	s.store.Clear()
	if s.logger != nil {
		s.logger.Info("tag service stopped")
	}
}

// GetOrCreate returns the tag for an identity.
//
// Without force, a cache hit is returned as-is. Any recomputation merges the
// previously cached ChatSound/Visible preferences into the fresh result, and
// a result indistinguishable from the default is returned uncached with any
// stale entry evicted: caching a default would lock out a permission grant
// that arrives after connect, since the fast path would keep serving it.
func (s *Service) GetOrCreate(ctx context.Context, identity uint64, force bool) *models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(ctx, identity, force)
}

func (s *Service) getOrCreateLocked(ctx context.Context, identity uint64, force bool) *models.Tag {
	if !force {
		if cached, ok := s.store.Tag(identity); ok {
			metrics.CacheHits.Inc()
			return cached
		}
	}
	metrics.CacheMisses.Inc()

	cached, hadCached := s.store.Tag(identity)
	computed := s.resolve(ctx, identity)
	if hadCached {
		mergePreferences(computed, cached)
	}
	s.storeOrEvict(identity, computed)
	return computed.Clone()
}

func (s *Service) resolve(ctx context.Context, identity uint64) *models.Tag {
	metrics.Resolutions.Inc()
	return resolver.Resolve(ctx, identity, s.rules.Load(), s.oracle)
}

// mergePreferences carries user-chosen fields from the previous cache entry
// onto a freshly resolved tag. Display fields are deliberately not merged:
// resolved attributes must always reflect current permissions, only
// preferences survive recomputation.
func mergePreferences(computed, cached *models.Tag) {
	if cached == nil {
		return
	}
	computed.ChatSound = cached.ChatSound
	computed.Visible = cached.Visible
}

// storeOrEvict applies the cache policy: a tag whose display fields and
// preferences are indistinguishable from the default is never cached, and a
// stale entry is evicted instead. An entry whose display fields match the
// default but whose preferences differ is kept so the preferences survive;
// the revalidation sweep still recomputes it every interval, so no grant is
// locked out.
func (s *Service) storeOrEvict(identity uint64, computed *models.Tag) {
	def := &s.rules.Load().Default
	if computed.ContentEqual(def) &&
		computed.ChatSound == def.ChatSound &&
		computed.Visible == def.Visible {
		s.store.DeleteTag(identity)
		return
	}
	s.store.SetTag(identity, computed)
}

// visibleScoreTag picks what the scoreboard should show for a tag: the tag's
// own score tag, or the default's when the player has hidden theirs.
func (s *Service) visibleScoreTag(tag *models.Tag) string {
	if tag.Visible {
		return tag.ScoreTag
	}
	return s.rules.Load().Default.ScoreTag
}

func (s *Service) pushBadge(identity uint64, text string) {
	metrics.BadgePushes.Inc()
	s.sink.SetBadge(identity, text)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = s.now()
	event.RequestID = middleware.GetRequestID(ctx)
	event.Actor = middleware.GetAdminSubject(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"identity", event.Identity,
			"error", err,
		)
	}
}
