package service

import (
	"context"
	"strconv"

	"tagd/internal/tags/models"
	"tagd/pkg/platform/audit"
)

// Mutators read-modify-write the cached tag for a connected identity. Every
// mutation is bracketed by the TagsUpdatedPre notification (a snapshot of
// the tag before the change) and TagsUpdatedPost (after). Both fire once the
// change is already written back; an observer reading live service state
// during the pre notification sees the post state, the snapshot argument is
// the only view of the old value. Notifications fire outside the service
// lock so an observer may call back into the service; a notification raised
// from inside an observer, or from a concurrent mutation, queues behind the
// multicast in flight and is never dropped. Operations against a
// disconnected identity silently no-op: a disconnect racing an in-flight
// callback is routine, not an error.

// AddAttribute composes value onto each selected kind at the given position
// and pushes the score tag immediately when it was touched.
func (s *Service) AddAttribute(ctx context.Context, identity uint64, kinds models.Kind, pos models.Position, value string) {
	if !s.store.Connected(identity) {
		return
	}

	s.mu.Lock()
	tag := s.getOrCreateLocked(ctx, identity, false)
	pre := tag.Clone()
	for _, kind := range models.Kinds {
		if !kinds.Has(kind) {
			continue
		}
		composed := models.Compose(pos, tag.Field(kind), value)
		tag.SetField(kind, composed)
		if kind == models.KindScoreTag {
			s.pushBadge(identity, composed)
		}
	}
	s.store.SetTag(identity, tag)
	s.mu.Unlock()

	s.notifyUpdated(identity, pre, tag)
	s.emit(ctx, audit.Event{
		Action:   audit.EventAttributeAdded,
		Identity: identity,
		Kinds:    kindNames(kinds),
		Value:    value,
	})
}

// SetAttribute overwrites each selected kind.
func (s *Service) SetAttribute(ctx context.Context, identity uint64, kinds models.Kind, value string) {
	if !s.store.Connected(identity) {
		return
	}

	s.mu.Lock()
	tag := s.getOrCreateLocked(ctx, identity, false)
	pre := tag.Clone()
	for _, kind := range models.Kinds {
		if !kinds.Has(kind) {
			continue
		}
		tag.SetField(kind, value)
		if kind == models.KindScoreTag {
			s.pushBadge(identity, value)
		}
	}
	s.store.SetTag(identity, tag)
	s.mu.Unlock()

	s.notifyUpdated(identity, pre, tag)
	s.emit(ctx, audit.Event{
		Action:   audit.EventAttributeSet,
		Identity: identity,
		Kinds:    kindNames(kinds),
		Value:    value,
	})
}

// GetAttribute returns the current value of exactly one kind, or "" for an
// unrecognized kind or a disconnected identity.
func (s *Service) GetAttribute(ctx context.Context, identity uint64, kind models.Kind) string {
	if !s.store.Connected(identity) {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(ctx, identity, false).Field(kind)
}

// ResetAttribute recomputes the from-scratch resolved tag, ignoring the
// cache, and copies only the selected kinds back onto the cached tag.
func (s *Service) ResetAttribute(ctx context.Context, identity uint64, kinds models.Kind) {
	if !s.store.Connected(identity) {
		return
	}

	s.mu.Lock()
	tag := s.getOrCreateLocked(ctx, identity, false)
	fresh := s.resolve(ctx, identity)
	pre := tag.Clone()
	for _, kind := range models.Kinds {
		if !kinds.Has(kind) {
			continue
		}
		tag.SetField(kind, fresh.Field(kind))
		if kind == models.KindScoreTag {
			s.pushBadge(identity, fresh.ScoreTag)
		}
	}
	s.store.SetTag(identity, tag)
	s.mu.Unlock()

	s.notifyUpdated(identity, pre, tag)
	s.emit(ctx, audit.Event{
		Action:   audit.EventAttributeReset,
		Identity: identity,
		Kinds:    kindNames(kinds),
	})
}

// ChatSoundEnabled reports the identity's chat-sound preference.
func (s *Service) ChatSoundEnabled(ctx context.Context, identity uint64) bool {
	if !s.store.Connected(identity) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.store.Tag(identity); ok {
		return cached.ChatSound
	}
	return s.getOrCreateLocked(ctx, identity, true).ChatSound
}

// SetChatSoundEnabled stores the chat-sound preference.
func (s *Service) SetChatSoundEnabled(ctx context.Context, identity uint64, enabled bool) {
	if !s.store.Connected(identity) {
		return
	}

	s.mu.Lock()
	tag := s.getOrCreateLocked(ctx, identity, false)
	pre := tag.Clone()
	tag.ChatSound = enabled
	s.store.SetTag(identity, tag)
	s.mu.Unlock()

	s.notifyUpdated(identity, pre, tag)
	s.emit(ctx, audit.Event{
		Action:   audit.EventChatSoundSet,
		Identity: identity,
		Value:    strconv.FormatBool(enabled),
	})
}

// Visibility reports whether the identity's tag formatting is shown.
func (s *Service) Visibility(ctx context.Context, identity uint64) bool {
	if !s.store.Connected(identity) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.store.Tag(identity); ok {
		return cached.Visible
	}
	return s.getOrCreateLocked(ctx, identity, true).Visible
}

// SetVisibility stores the visibility preference and immediately pushes the
// matching score tag: the player's own when turning visible, the default's
// when hiding.
func (s *Service) SetVisibility(ctx context.Context, identity uint64, visible bool) {
	if !s.store.Connected(identity) {
		return
	}

	s.mu.Lock()
	tag := s.getOrCreateLocked(ctx, identity, false)
	pre := tag.Clone()
	tag.Visible = visible
	s.store.SetTag(identity, tag)
	badge := s.rules.Load().Default.ScoreTag
	if visible {
		badge = tag.ScoreTag
	}
	s.pushBadge(identity, badge)
	s.mu.Unlock()

	s.notifyUpdated(identity, pre, tag)
	s.emit(ctx, audit.Event{
		Action:   audit.EventVisibilitySet,
		Identity: identity,
		Value:    strconv.FormatBool(visible),
	})
}

func (s *Service) notifyUpdated(identity uint64, pre, post *models.Tag) {
	s.hooks.TagsUpdatedPre(identity, pre)
	s.hooks.TagsUpdatedPost(identity, post)
}

func kindNames(kinds models.Kind) string {
	names := ""
	add := func(n string) {
		if names != "" {
			names += ","
		}
		names += n
	}
	if kinds.Has(models.KindScoreTag) {
		add("score_tag")
	}
	if kinds.Has(models.KindChatTag) {
		add("chat_tag")
	}
	if kinds.Has(models.KindNameColor) {
		add("name_color")
	}
	if kinds.Has(models.KindChatColor) {
		add("chat_color")
	}
	return names
}
