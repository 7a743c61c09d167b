// Package chat formats outgoing chat messages and runs the three-stage hook
// pipeline around them.
package chat

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tagd/internal/platform/metrics"
	"tagd/internal/tags/models"
)

// Message is one outgoing chat message moving through the pipeline.
// Observers may rewrite PlayerName, Body, Tag fields and the ChatSound flag;
// the struct is shared across all three stages of a single dispatch.
type Message struct {
	ID       uuid.UUID
	Identity uint64

	// PlayerName starts as the raw sender name and is replaced by the fully
	// formatted display name before the Process stage.
	PlayerName string
	Body       string

	Team        models.Team
	Alive       bool
	TeamMessage bool

	// Tag is the display tag the message formats with. For a sender with
	// visibility off this is a clone of the default tag, not their cached
	// one.
	Tag *models.Tag

	// ChatSound is the sender's own preference regardless of visibility.
	ChatSound bool
}

// Delivery is the pipeline output handed back to the transport.
type Delivery struct {
	Name      string `json:"name"`
	Body      string `json:"body"`
	Line      string `json:"line"`
	ChatSound bool   `json:"chat_sound"`
}

// Pipeline dispatches messages through Pre, Process and Post stages.
type Pipeline struct {
	mu     sync.Mutex
	hooks  *Hooks
	logger *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline builds a pipeline around a hook registry.
func NewPipeline(hooks *Hooks, opts ...PipelineOption) *Pipeline {
	if hooks == nil {
		hooks = NewHooks()
	}
	p := &Pipeline{hooks: hooks}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hooks exposes the registration surface.
func (p *Pipeline) Hooks() *Hooks {
	return p.hooks
}

// Dispatch runs one message through the pipeline.
//
// Stage order: strip the body, Pre (veto), format name and body, Process
// (veto), deliver, Post (notify). A terminal result from Pre or Process
// suppresses the message and skips everything after it, including Post.
// A body that is empty after stripping is suppressed as HookHandled without
// consulting any observer.
//
// Dispatches are serialized: a message arriving while another dispatch is in
// flight waits for it, so every message passes the full observer chain. The
// stage guards in Hooks consequently only trip when an observer re-invokes
// its own stage on the same stack.
//
// An observer panic during Pre or Process is not recovered here; it
// propagates to the transport layer, which logs it and drops the dispatch.
func (p *Pipeline) Dispatch(settings *models.Settings, m *Message) (*Delivery, HookResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Tag == nil {
		m.Tag = &models.Tag{}
	}

	m.Body = StripBody(m.Body)
	if m.Body == "" {
		metrics.MessagesSuppressed.Inc()
		return nil, HookHandled
	}

	if r := p.hooks.MessagePre(m); r >= HookStop {
		p.suppressed(m, "pre", r)
		return nil, r
	}

	prefix := settings.DeadName
	if m.Alive || m.Team == models.TeamSpectator {
		prefix = settings.PrefixName(m.Team)
	}
	teamName := ""
	if m.TeamMessage {
		teamName = settings.ChatName(m.Team)
	}

	m.PlayerName = FormatSegments(m.Team, prefix, teamName, m.Tag.ChatTag, m.Tag.NameColor, m.PlayerName)
	m.Body = FormatSegments(m.Team, m.Tag.ChatColor, m.Body)

	if r := p.hooks.Message(m); r >= HookStop {
		p.suppressed(m, "process", r)
		return nil, r
	}

	d := &Delivery{
		Name:      m.PlayerName,
		Body:      m.Body,
		Line:      " " + m.PlayerName + codeDefault + ": " + m.Body,
		ChatSound: m.ChatSound,
	}
	metrics.MessagesProcessed.Inc()

	p.hooks.MessagePost(m)
	return d, HookContinue
}

func (p *Pipeline) suppressed(m *Message, stage string, r HookResult) {
	metrics.MessagesSuppressed.Inc()
	if p.logger != nil {
		p.logger.Debug("message suppressed",
			"message_id", m.ID,
			"identity", m.Identity,
			"stage", stage,
			"result", r.String(),
		)
	}
}
