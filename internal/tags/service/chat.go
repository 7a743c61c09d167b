package service

import (
	"context"

	"tagd/internal/chat"
	"tagd/internal/tags/models"
	"tagd/pkg/platform/sentinel"
)

// ChatRequest is one raw outgoing chat message as the game transport hands
// it over.
type ChatRequest struct {
	Identity    uint64      `json:"identity"`
	Name        string      `json:"name"`
	Body        string      `json:"body"`
	Team        models.Team `json:"team"`
	Alive       bool        `json:"alive"`
	TeamMessage bool        `json:"team_message"`
}

// ProcessChat resolves the sender's display tag and runs the message through
// the pipeline. A nil delivery with a terminal result means the message was
// suppressed. Senders with visibility off format with a clone of the default
// tag, but keep their own chat-sound preference.
//
// Returns sentinel.ErrNotConnected for unknown senders. Pre and process
// observer panics propagate to the caller, which logs the dropped dispatch.
func (s *Service) ProcessChat(ctx context.Context, req ChatRequest) (*chat.Delivery, chat.HookResult, error) {
	if !s.store.Connected(req.Identity) {
		return nil, chat.HookContinue, sentinel.ErrNotConnected
	}

	tag := s.GetOrCreate(ctx, req.Identity, s.WithinWarmup(req.Identity))

	rs := s.rules.Load()
	display := tag
	if !tag.Visible {
		display = rs.Default.Clone()
		display.ChatSound = tag.ChatSound
		display.Visible = tag.Visible
	}

	msg := &chat.Message{
		Identity:    req.Identity,
		PlayerName:  req.Name,
		Body:        req.Body,
		Team:        req.Team,
		Alive:       req.Alive,
		TeamMessage: req.TeamMessage,
		Tag:         display,
		ChatSound:   tag.ChatSound,
	}

	delivery, result := s.pipeline.Dispatch(&rs.Settings, msg)
	return delivery, result, nil
}
