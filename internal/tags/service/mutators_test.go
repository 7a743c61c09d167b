package service

import (
	"tagd/internal/tags/models"
)

func (s *ServiceSuite) connectCached(identity uint64, token string) {
	s.grants[token] = true
	s.svc.Connect(s.ctx, identity)
	s.sched.Tick()
}

func (s *ServiceSuite) TestAddAttribute() {
	s.connectCached(playerOne, "vip")

	s.Run("before prepends to the current value", func() {
		s.svc.SetAttribute(s.ctx, playerOne, models.KindChatTag, "A")
		s.svc.AddAttribute(s.ctx, playerOne, models.KindChatTag, models.PositionBefore, "B")
		s.Equal("BA", s.svc.GetAttribute(s.ctx, playerOne, models.KindChatTag))
	})

	s.Run("after appends", func() {
		s.svc.SetAttribute(s.ctx, playerOne, models.KindChatTag, "A")
		s.svc.AddAttribute(s.ctx, playerOne, models.KindChatTag, models.PositionAfter, "B")
		s.Equal("AB", s.svc.GetAttribute(s.ctx, playerOne, models.KindChatTag))
	})

	s.Run("replace overwrites", func() {
		s.svc.SetAttribute(s.ctx, playerOne, models.KindChatTag, "A")
		s.svc.AddAttribute(s.ctx, playerOne, models.KindChatTag, models.PositionReplace, "B")
		s.Equal("B", s.svc.GetAttribute(s.ctx, playerOne, models.KindChatTag))
	})

	s.Run("multiple kinds mutate in one call", func() {
		s.svc.SetAttribute(s.ctx, playerOne, models.KindNameColor|models.KindChatColor, "{red}")
		s.Equal("{red}", s.svc.GetAttribute(s.ctx, playerOne, models.KindNameColor))
		s.Equal("{red}", s.svc.GetAttribute(s.ctx, playerOne, models.KindChatColor))
	})

	s.Run("touching the score tag pushes the badge immediately", func() {
		s.svc.SetAttribute(s.ctx, playerOne, models.KindScoreTag, "[LIVE]")
		text, _ := s.lastPushFor(playerOne)
		s.Equal("[LIVE]", text)
	})
}

func (s *ServiceSuite) TestResetAttribute() {
	s.connectCached(playerOne, "vip")

	s.svc.SetAttribute(s.ctx, playerOne, models.KindScoreTag|models.KindChatTag, "[CUSTOM]")
	s.svc.ResetAttribute(s.ctx, playerOne, models.KindScoreTag)

	s.Run("the reset kind returns to its resolved value", func() {
		s.Equal("[VIP]", s.svc.GetAttribute(s.ctx, playerOne, models.KindScoreTag))
	})

	s.Run("other kinds keep their overrides", func() {
		s.Equal("[CUSTOM]", s.svc.GetAttribute(s.ctx, playerOne, models.KindChatTag))
	})

	s.Run("the badge follows the reset", func() {
		text, _ := s.lastPushFor(playerOne)
		s.Equal("[VIP]", text)
	})
}

func (s *ServiceSuite) TestMutatorsOnDisconnected() {
	s.Run("mutations on unknown identities are silent no-ops", func() {
		s.svc.SetAttribute(s.ctx, playerTwo, models.KindScoreTag, "[GHOST]")
		s.svc.AddAttribute(s.ctx, playerTwo, models.KindScoreTag, models.PositionAfter, "x")
		s.svc.ResetAttribute(s.ctx, playerTwo, models.KindScoreTag)
		s.svc.SetVisibility(s.ctx, playerTwo, false)
		s.svc.SetChatSoundEnabled(s.ctx, playerTwo, false)

		_, pushed := s.lastPushFor(playerTwo)
		s.False(pushed)
	})

	s.Run("reads degrade to zero values", func() {
		s.Empty(s.svc.GetAttribute(s.ctx, playerTwo, models.KindScoreTag))
		s.False(s.svc.Visibility(s.ctx, playerTwo))
		s.True(s.svc.ChatSoundEnabled(s.ctx, playerTwo))
	})
}

func (s *ServiceSuite) TestVisibility() {
	s.connectCached(playerOne, "vip")

	s.Run("hiding pushes the default badge", func() {
		s.svc.SetVisibility(s.ctx, playerOne, false)
		s.False(s.svc.Visibility(s.ctx, playerOne))

		text, _ := s.lastPushFor(playerOne)
		s.Empty(text)
	})

	s.Run("the resolved attributes are untouched", func() {
		s.Equal("[VIP]", s.svc.GetAttribute(s.ctx, playerOne, models.KindScoreTag))
	})

	s.Run("showing again pushes the player's own badge", func() {
		s.svc.SetVisibility(s.ctx, playerOne, true)
		text, _ := s.lastPushFor(playerOne)
		s.Equal("[VIP]", text)
	})
}

func (s *ServiceSuite) TestUpdateNotifications() {
	s.connectCached(playerOne, "vip")

	var pre, post *models.Tag
	s.svc.Hooks().OnTagsUpdatedPre(func(_ uint64, tag *models.Tag) { pre = tag.Clone() })
	s.svc.Hooks().OnTagsUpdatedPost(func(_ uint64, tag *models.Tag) { post = tag.Clone() })

	s.svc.SetAttribute(s.ctx, playerOne, models.KindScoreTag, "[NEW]")

	s.Run("pre observers see the value before the change", func() {
		s.Require().NotNil(pre)
		s.Equal("[VIP]", pre.ScoreTag)
	})

	s.Run("post observers see the value after", func() {
		s.Require().NotNil(post)
		s.Equal("[NEW]", post.ScoreTag)
	})

	s.Run("an observer may call back into the service", func() {
		got := ""
		s.svc.Hooks().OnTagsUpdatedPost(func(identity uint64, _ *models.Tag) {
			got = s.svc.GetAttribute(s.ctx, identity, models.KindScoreTag)
		})
		s.svc.SetAttribute(s.ctx, playerOne, models.KindScoreTag, "[AGAIN]")
		s.Equal("[AGAIN]", got)
	})
}
