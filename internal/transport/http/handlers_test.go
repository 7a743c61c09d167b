package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tagd/internal/chat"
	"tagd/internal/oracle"
	"tagd/internal/platform/authtoken"
	"tagd/internal/platform/logger"
	"tagd/internal/presentation"
	"tagd/internal/scheduler"
	"tagd/internal/tags/models"
	"tagd/internal/tags/service"
	"tagd/internal/tags/store"
)

const player uint64 = 76561197960265728

type HandlerSuite struct {
	suite.Suite
	ctx context.Context

	sched  *scheduler.Manual
	svc    *service.Service
	board  *presentation.Scoreboard
	tokens *authtoken.Service
	router http.Handler

	reloadErr error
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.sched = scheduler.NewManual()
	s.board = presentation.New()
	s.tokens = authtoken.New("test-key", "tagd")
	s.reloadErr = nil

	static := oracle.NewStatic(map[uint64][]string{player: {"vip"}})
	svc, err := service.New(store.NewMemory(), static, s.board, s.sched,
		service.WithLogger(logger.Discard()),
		service.WithClock(s.sched.Now),
	)
	s.Require().NoError(err)
	svc.SetRules(&models.RuleSet{
		Default: models.Tag{ChatSound: true, Visible: true},
		Rules: []models.Rule{
			{Token: "vip", Tag: models.Tag{ScoreTag: "[VIP]", ChatTag: "{gold}[VIP] ", ChatSound: true, Visible: true}},
		},
	})
	svc.Start()
	s.T().Cleanup(svc.Stop)
	s.svc = svc

	reload := func(context.Context) (int, error) {
		if s.reloadErr != nil {
			return 0, s.reloadErr
		}
		return 1, nil
	}
	handler := New(svc, s.board, reload, nil, logger.Discard())
	s.router = NewRouter(handler, s.tokens)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) adminHeaders() map[string]string {
	token, err := s.tokens.Generate("ops@example.com", time.Hour)
	s.Require().NoError(err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *HandlerSuite) connect() {
	rr := s.do(http.MethodPost, "/v1/events/connect", fmt.Sprintf(`{"identity":%d}`, player), nil)
	s.Require().Equal(http.StatusAccepted, rr.Code)
	s.sched.Tick()
}

func (s *HandlerSuite) decode(rr *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) TestEvents() {
	s.Run("connect schedules the badge apply", func() {
		s.connect()
		badge, ok := s.board.Badge(player)
		s.True(ok)
		s.Equal("[VIP]", badge)
	})

	s.Run("disconnect clears the scoreboard", func() {
		s.connect()
		rr := s.do(http.MethodPost, "/v1/events/disconnect", fmt.Sprintf(`{"identity":%d}`, player), nil)
		s.Equal(http.StatusAccepted, rr.Code)

		_, ok := s.board.Badge(player)
		s.False(ok)
	})

	s.Run("zero identity is rejected", func() {
		rr := s.do(http.MethodPost, "/v1/events/connect", `{"identity":0}`, nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("malformed body is rejected", func() {
		rr := s.do(http.MethodPost, "/v1/events/connect", `{bad`, nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestBadgeEndpoint() {
	s.connect()

	s.Run("returns the applied badge", func() {
		rr := s.do(http.MethodGet, fmt.Sprintf("/v1/players/%d/badge", player), "", nil)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal("[VIP]", s.decode(rr)["badge"])
	})

	s.Run("404 when nothing applied", func() {
		rr := s.do(http.MethodGet, "/v1/players/42/badge", "", nil)
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("non-numeric identity is rejected", func() {
		rr := s.do(http.MethodGet, "/v1/players/abc/badge", "", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestChat() {
	s.Run("unknown sender answers 404", func() {
		rr := s.do(http.MethodPost, "/v1/chat", fmt.Sprintf(`{"identity":%d,"name":"alice","body":"hi"}`, player), nil)
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.connect()

	s.Run("formatted delivery comes back", func() {
		rr := s.do(http.MethodPost, "/v1/chat",
			fmt.Sprintf(`{"identity":%d,"name":"alice","body":"hi","team":"ct","alive":true}`, player), nil)
		s.Require().Equal(http.StatusOK, rr.Code)

		body := s.decode(rr)
		s.Equal("\x10[VIP] alice", body["name"])
		s.Equal(true, body["chat_sound"])
	})

	s.Run("suppressed message answers 204", func() {
		s.svc.Hooks().OnMessagePre(func(*chat.Message) chat.HookResult { return chat.HookStop })
		rr := s.do(http.MethodPost, "/v1/chat",
			fmt.Sprintf(`{"identity":%d,"name":"alice","body":"hi","alive":true}`, player), nil)
		s.Equal(http.StatusNoContent, rr.Code)
	})
}

func (s *HandlerSuite) TestChatObserverPanic() {
	s.connect()
	s.svc.Hooks().OnMessagePre(func(*chat.Message) chat.HookResult { panic("observer bug") })

	rr := s.do(http.MethodPost, "/v1/chat",
		fmt.Sprintf(`{"identity":%d,"name":"alice","body":"hi","alive":true}`, player), nil)

	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Equal("dispatch_aborted", s.decode(rr)["error"])
}

func (s *HandlerSuite) TestAdminAuth() {
	paths := [][2]string{
		{http.MethodPost, "/v1/admin/reload"},
		{http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player)},
		{http.MethodPut, fmt.Sprintf("/v1/admin/players/%d/visibility", player)},
	}

	s.Run("no token answers 401", func() {
		for _, p := range paths {
			rr := s.do(p[0], p[1], "", nil)
			s.Equal(http.StatusUnauthorized, rr.Code, p[1])
		}
	})

	s.Run("garbage token answers 401", func() {
		rr := s.do(http.MethodPost, "/v1/admin/reload", "", map[string]string{"Authorization": "Bearer junk"})
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}

func (s *HandlerSuite) TestAdminReload() {
	s.Run("success reports the rule count", func() {
		rr := s.do(http.MethodPost, "/v1/admin/reload", "", s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal(float64(1), s.decode(rr)["rules"])
	})

	s.Run("a failed reload is reported, not applied", func() {
		s.reloadErr = errors.New("yaml: bad indent")
		rr := s.do(http.MethodPost, "/v1/admin/reload", "", s.adminHeaders())
		s.Equal(http.StatusUnprocessableEntity, rr.Code)
	})
}

func (s *HandlerSuite) TestAdminAttributes() {
	s.connect()

	s.Run("set then get", func() {
		rr := s.do(http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player),
			`{"op":"set","kinds":["score_tag"],"value":"[MOD]"}`, s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)

		rr = s.do(http.MethodGet, fmt.Sprintf("/v1/admin/players/%d/attributes", player), "", s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)
		attrs := s.decode(rr)["attributes"].(map[string]any)
		s.Equal("[MOD]", attrs["score_tag"])
	})

	s.Run("add composes at a position", func() {
		rr := s.do(http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player),
			`{"op":"add","kinds":["score_tag"],"value":"*","position":"before"}`, s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal("*[MOD]", s.svc.GetAttribute(s.ctx, player, models.KindScoreTag))
	})

	s.Run("reset returns to the resolved value", func() {
		rr := s.do(http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player),
			`{"op":"reset","kinds":["score_tag"]}`, s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal("[VIP]", s.svc.GetAttribute(s.ctx, player, models.KindScoreTag))
	})

	s.Run("unknown kind is rejected", func() {
		rr := s.do(http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player),
			`{"op":"set","kinds":["badge_color"],"value":"x"}`, s.adminHeaders())
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unknown op is rejected", func() {
		rr := s.do(http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player),
			`{"op":"zap","kinds":["score_tag"]}`, s.adminHeaders())
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("disconnected player answers 404", func() {
		rr := s.do(http.MethodPost, "/v1/admin/players/42/attributes",
			`{"op":"set","kinds":["score_tag"],"value":"x"}`, s.adminHeaders())
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("delete resets every display field", func() {
		rr := s.do(http.MethodPost, fmt.Sprintf("/v1/admin/players/%d/attributes", player),
			`{"op":"set","kinds":["score_tag","chat_tag"],"value":"[X]"}`, s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)

		rr = s.do(http.MethodDelete, fmt.Sprintf("/v1/admin/players/%d/attributes", player), "", s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal("[VIP]", s.svc.GetAttribute(s.ctx, player, models.KindScoreTag))
		s.NotEqual("[X]", s.svc.GetAttribute(s.ctx, player, models.KindChatTag))
	})
}

func (s *HandlerSuite) TestAdminPreferences() {
	s.connect()

	s.Run("visibility off pushes the default badge", func() {
		rr := s.do(http.MethodPut, fmt.Sprintf("/v1/admin/players/%d/visibility", player),
			`{"visible":false}`, s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)

		badge, _ := s.board.Badge(player)
		s.Empty(badge)
		s.False(s.svc.Visibility(s.ctx, player))
	})

	s.Run("chat sound preference round-trips", func() {
		rr := s.do(http.MethodPut, fmt.Sprintf("/v1/admin/players/%d/chat-sound", player),
			`{"enabled":false}`, s.adminHeaders())
		s.Require().Equal(http.StatusOK, rr.Code)
		s.False(s.svc.ChatSoundEnabled(s.ctx, player))
	})
}

func (s *HandlerSuite) TestHealth() {
	rr := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rr.Code)
}
