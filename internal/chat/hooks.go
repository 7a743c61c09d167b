package chat

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"tagd/internal/platform/metrics"
	"tagd/internal/tags/models"
)

// HookResult is the tri-state-plus-terminal outcome of a message observer.
// Results at or above HookStop are terminal: the dispatch aborts and the
// message is suppressed.
type HookResult int

const (
	HookContinue HookResult = iota
	HookChanged
	HookHandled
	HookStop
)

func (r HookResult) String() string {
	switch r {
	case HookContinue:
		return "continue"
	case HookChanged:
		return "changed"
	case HookHandled:
		return "handled"
	case HookStop:
		return "stop"
	default:
		return "unknown"
	}
}

// MessageObserver inspects and may rewrite or veto a message in flight.
type MessageObserver func(*Message) HookResult

// MessageNotifier observes a delivered message. It cannot veto.
type MessageNotifier func(*Message)

// TagObserver observes an attribute mutation. Pre observers see the tag as it
// is before the change, post observers after.
type TagObserver func(identity uint64, tag *models.Tag)

// Hooks is the registration point for the message pipeline stages and the
// attribute-change notifications.
//
// Each message stage carries an in-flight guard: an observer that
// synchronously re-invokes the stage it is running in collapses the nested
// call to a no-op HookContinue instead of recursing. The guards assume stage
// invocations are already serialized by the dispatcher (Pipeline.Dispatch
// holds a lock for the whole dispatch), so a tripped guard always means
// same-stack recursion, never a concurrent message. Guards are released on
// every exit path, including observer panics, so a fault cannot wedge a
// stage shut.
//
// Tag-change notifications are serialized through a queue instead: an event
// fired while a multicast is in flight, whether from another goroutine or
// from inside an observer, is delivered once the current multicast finishes.
// No tag event is ever dropped.
type Hooks struct {
	mu      sync.Mutex
	pre     []MessageObserver
	process []MessageObserver
	post    []MessageNotifier
	tagsPre []TagObserver
	tagsPst []TagObserver

	// guarded by mu
	tagQueue    []tagEvent
	tagDraining bool

	inPre     atomic.Bool
	inProcess atomic.Bool
	inPost    atomic.Bool

	logger *slog.Logger
}

type tagPhase int

const (
	tagPhasePre tagPhase = iota
	tagPhasePost
)

type tagEvent struct {
	phase    tagPhase
	identity uint64
	tag      *models.Tag
}

// HooksOption configures a Hooks instance.
type HooksOption func(*Hooks)

// WithHooksLogger sets the logger used for isolated observer failures.
func WithHooksLogger(logger *slog.Logger) HooksOption {
	return func(h *Hooks) {
		h.logger = logger
	}
}

func NewHooks(opts ...HooksOption) *Hooks {
	h := &Hooks{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnMessagePre registers a Pre-stage observer. Observers run in registration
// order.
func (h *Hooks) OnMessagePre(obs MessageObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pre = append(h.pre, obs)
}

// OnMessage registers a Process-stage observer.
func (h *Hooks) OnMessage(obs MessageObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.process = append(h.process, obs)
}

// OnMessagePost registers a Post-stage notifier.
func (h *Hooks) OnMessagePost(fn MessageNotifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.post = append(h.post, fn)
}

// OnTagsUpdatedPre registers an attribute pre-change observer.
func (h *Hooks) OnTagsUpdatedPre(obs TagObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tagsPre = append(h.tagsPre, obs)
}

// OnTagsUpdatedPost registers an attribute post-change observer.
func (h *Hooks) OnTagsUpdatedPost(obs TagObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tagsPst = append(h.tagsPst, obs)
}

// MessagePre runs the Pre stage.
func (h *Hooks) MessagePre(m *Message) HookResult {
	if !h.inPre.CompareAndSwap(false, true) {
		return HookContinue
	}
	defer h.inPre.Store(false)
	return fold(h.observers(&h.pre), m)
}

// Message runs the Process stage.
func (h *Hooks) Message(m *Message) HookResult {
	if !h.inProcess.CompareAndSwap(false, true) {
		return HookContinue
	}
	defer h.inProcess.Store(false)
	return fold(h.observers(&h.process), m)
}

// MessagePost runs the Post stage. A panicking notifier is logged and must
// not prevent its siblings from running; the message has already been
// delivered by the time Post fires.
func (h *Hooks) MessagePost(m *Message) {
	if !h.inPost.CompareAndSwap(false, true) {
		return
	}
	defer h.inPost.Store(false)

	h.mu.Lock()
	notifiers := append([]MessageNotifier(nil), h.post...)
	h.mu.Unlock()

	for _, fn := range notifiers {
		h.notifyIsolated(func() { fn(m) }, "message post observer")
	}
}

// TagsUpdatedPre fires the attribute pre-change notification.
func (h *Hooks) TagsUpdatedPre(identity uint64, tag *models.Tag) {
	h.fireTagEvent(tagEvent{phase: tagPhasePre, identity: identity, tag: tag})
}

// TagsUpdatedPost fires the attribute post-change notification.
func (h *Hooks) TagsUpdatedPost(identity uint64, tag *models.Tag) {
	h.fireTagEvent(tagEvent{phase: tagPhasePost, identity: identity, tag: tag})
}

// fireTagEvent delivers tag events one multicast at a time. The first caller
// becomes the drainer and works the queue; events fired while it is running,
// from other goroutines or from inside its observers, are appended and
// picked up before the drainer returns. A caller whose event is handed to an
// active drainer returns without waiting for delivery.
func (h *Hooks) fireTagEvent(ev tagEvent) {
	h.mu.Lock()
	h.tagQueue = append(h.tagQueue, ev)
	if h.tagDraining {
		h.mu.Unlock()
		return
	}
	h.tagDraining = true
	for len(h.tagQueue) > 0 {
		next := h.tagQueue[0]
		h.tagQueue = h.tagQueue[1:]

		list, what := h.tagsPre, "tags pre-change observer"
		if next.phase == tagPhasePost {
			list, what = h.tagsPst, "tags post-change observer"
		}
		observers := append([]TagObserver(nil), list...)
		h.mu.Unlock()

		for _, obs := range observers {
			obs := obs
			h.notifyIsolated(func() { obs(next.identity, next.tag) }, what)
		}
		h.mu.Lock()
	}
	h.tagDraining = false
	h.mu.Unlock()
}

func (h *Hooks) observers(list *[]MessageObserver) []MessageObserver {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]MessageObserver(nil), *list...)
}

// fold evaluates observers left to right. HookStop short-circuits; a
// HookHandled result is sticky but lets later observers run. Observer panics
// in Pre/Process are not recovered here; the dispatch caller owns that
// failure.
func fold(observers []MessageObserver, m *Message) HookResult {
	final := HookContinue
	for _, obs := range observers {
		switch r := obs(m); {
		case r >= HookStop:
			return r
		case r == HookHandled:
			final = HookHandled
		case r == HookChanged && final < HookChanged:
			final = HookChanged
		}
	}
	return final
}

func (h *Hooks) notifyIsolated(fn func(), what string) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.ObserverPanics.Inc()
			if h.logger != nil {
				h.logger.Error("observer panicked", "stage", what, "panic", rec)
			}
		}
	}()
	fn()
}
