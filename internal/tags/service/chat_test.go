package service

import (
	"tagd/internal/chat"
	"tagd/internal/tags/models"
	"tagd/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestProcessChat() {
	s.Run("unknown senders are rejected", func() {
		_, _, err := s.svc.ProcessChat(s.ctx, ChatRequest{Identity: playerOne, Body: "hi"})
		s.Require().ErrorIs(err, sentinel.ErrNotConnected)
	})

	s.connectCached(playerOne, "vip")

	s.Run("messages format with the sender's resolved tag", func() {
		d, result, err := s.svc.ProcessChat(s.ctx, ChatRequest{
			Identity: playerOne,
			Name:     "alice",
			Body:     "hello",
			Team:     models.TeamCT,
			Alive:    true,
		})
		s.Require().NoError(err)
		s.Equal(chat.HookContinue, result)
		s.Require().NotNil(d)
		s.Equal("\x10[VIP] alice", d.Name)
		s.True(d.ChatSound)
	})

	s.Run("a hidden sender formats with the default tag", func() {
		s.svc.SetVisibility(s.ctx, playerOne, false)
		s.svc.SetChatSoundEnabled(s.ctx, playerOne, false)

		d, _, err := s.svc.ProcessChat(s.ctx, ChatRequest{
			Identity: playerOne,
			Name:     "alice",
			Body:     "hello",
			Team:     models.TeamCT,
			Alive:    true,
		})
		s.Require().NoError(err)
		s.Require().NotNil(d)
		s.Equal("alice", d.Name)
		s.False(d.ChatSound, "visibility must not reset the sender's own chat-sound preference")

		s.svc.SetVisibility(s.ctx, playerOne, true)
		s.svc.SetChatSoundEnabled(s.ctx, playerOne, true)
	})

	s.Run("a vetoing hook suppresses the message", func() {
		s.svc.Hooks().OnMessagePre(func(*chat.Message) chat.HookResult { return chat.HookStop })
		d, result, err := s.svc.ProcessChat(s.ctx, ChatRequest{
			Identity: playerOne,
			Name:     "alice",
			Body:     "hello",
			Alive:    true,
		})
		s.Require().NoError(err)
		s.Nil(d)
		s.Equal(chat.HookStop, result)
	})
}
