package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tagd/internal/oracle"
	"tagd/internal/oracle/mocks"
	"tagd/internal/tags/models"
)

//go:generate mockgen -source=../../oracle/oracle.go -destination=../../oracle/mocks/mocks.go -package=mocks PermissionOracle

const vipIdentity uint64 = 76561197960265728

func ruleSet() *models.RuleSet {
	return &models.RuleSet{
		Default: models.Tag{ScoreTag: "", ChatColor: "{white}", ChatSound: true, Visible: true},
		Rules: []models.Rule{
			{Token: "admin", Tag: models.Tag{ScoreTag: "[ADMIN]", ChatTag: "{red}[ADMIN] ", ChatSound: true, Visible: true}},
			{Token: "vip", Tag: models.Tag{ScoreTag: "[VIP]", ChatTag: "{gold}[VIP] ", ChatSound: true, Visible: true}},
			{Token: models.LiteralToken(vipIdentity), Tag: models.Tag{ScoreTag: "[OWNER]", ChatSound: true, Visible: true}},
		},
	}
}

type ResolverSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) newOracle() *mocks.MockPermissionOracle {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	return mocks.NewMockPermissionOracle(ctrl)
}

func (s *ResolverSuite) TestResolve() {
	s.Run("no grants resolves to a clone of the default", func() {
		o := s.newOracle()
		o.EXPECT().HasPermission(gomock.Any(), uint64(42), gomock.Any()).Return(false).AnyTimes()

		rs := ruleSet()
		tag := Resolve(s.ctx, 42, rs, o)

		s.Equal("{white}", tag.ChatColor)
		s.True(tag.ChatSound)

		tag.ChatColor = "mutated"
		s.Equal("{white}", rs.Default.ChatColor)
	})

	s.Run("literal identity rule wins without consulting the oracle", func() {
		o := s.newOracle()
		o.EXPECT().HasPermission(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		tag := Resolve(s.ctx, vipIdentity, ruleSet(), o)
		s.Equal("[OWNER]", tag.ScoreTag)
	})

	s.Run("first granted rule in declared order wins", func() {
		o := s.newOracle()
		gomock.InOrder(
			o.EXPECT().HasPermission(gomock.Any(), uint64(7), "admin").Return(false),
			o.EXPECT().HasPermission(gomock.Any(), uint64(7), "vip").Return(true),
		)

		tag := Resolve(s.ctx, 7, ruleSet(), o)
		s.Equal("[VIP]", tag.ScoreTag)
	})

	s.Run("earlier grant shadows later ones", func() {
		o := s.newOracle()
		o.EXPECT().HasPermission(gomock.Any(), uint64(7), "admin").Return(true)

		tag := Resolve(s.ctx, 7, ruleSet(), o)
		s.Equal("[ADMIN]", tag.ScoreTag)
	})

	s.Run("blank tokens never match", func() {
		o := s.newOracle()
		o.EXPECT().HasPermission(gomock.Any(), uint64(7), "vip").Return(false)

		rs := &models.RuleSet{
			Default: models.Tag{ChatSound: true, Visible: true},
			Rules: []models.Rule{
				{Token: "", Tag: models.Tag{ScoreTag: "[EVERYONE]"}},
				{Token: "vip", Tag: models.Tag{ScoreTag: "[VIP]"}},
			},
		}
		tag := Resolve(s.ctx, 7, rs, o)
		s.Empty(tag.ScoreTag)
	})

	s.Run("nil rule set resolves to an empty tag", func() {
		tag := Resolve(s.ctx, 7, nil, s.newOracle())
		s.Equal(&models.Tag{}, tag)
	})

	s.Run("nil oracle skips the permission tier", func() {
		var o oracle.PermissionOracle
		tag := Resolve(s.ctx, 7, ruleSet(), o)
		s.Equal("{white}", tag.ChatColor)
	})
}
