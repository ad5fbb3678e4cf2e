package models

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) TestAccessLevelOrdering() {
	s.Run("none < masked < partial < full", func() {
		s.True(LevelMasked.AtLeast(LevelNone))
		s.True(LevelPartial.AtLeast(LevelMasked))
		s.True(LevelFull.AtLeast(LevelPartial))
		s.False(LevelNone.AtLeast(LevelMasked))
		s.False(LevelPartial.AtLeast(LevelFull))
	})

	s.Run("every level is at least itself", func() {
		for _, l := range []AccessLevel{LevelNone, LevelMasked, LevelPartial, LevelFull} {
			s.True(l.AtLeast(l))
		}
	})

	s.Run("MorePermissive picks the wider level", func() {
		s.Equal(LevelFull, MorePermissive(LevelMasked, LevelFull))
		s.Equal(LevelFull, MorePermissive(LevelFull, LevelMasked))
		s.Equal(LevelPartial, MorePermissive(LevelPartial, LevelMasked))
		s.Equal(LevelNone, MorePermissive(LevelNone, LevelNone))
	})
}

func (s *ModelsSuite) TestParseAccessLevel() {
	s.Run("accepts enum members", func() {
		for _, raw := range []string{"none", "masked", "partial", "full"} {
			level, err := ParseAccessLevel(raw)
			s.Require().NoError(err)
			s.Equal(AccessLevel(raw), level)
		}
	})

	s.Run("rejects anything else with validation code", func() {
		_, err := ParseAccessLevel("read-write")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ModelsSuite) TestParseEntityType() {
	s.Run("unknown entity type is a configuration error", func() {
		_, err := ParseEntityType("vehicle")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	s.Run("closed set round-trips", func() {
		for _, e := range EntityTypes() {
			parsed, err := ParseEntityType(string(e))
			s.Require().NoError(err)
			s.Equal(e, parsed)
		}
	})
}

func (s *ModelsSuite) TestLevelFor() {
	p := FieldPolicy{
		EntityType: EntityCitizen,
		FieldName:  "nationalId",
		FieldKind:  KindIdentifier,
		Public:     LevelNone,
		Officer:    LevelMasked,
		Manager:    LevelFull,
		Admin:      LevelFull,
		BreakGlass: LevelFull,
	}

	s.Run("selects the matching tier column", func() {
		s.Equal(LevelNone, p.LevelFor(RolePublic))
		s.Equal(LevelMasked, p.LevelFor(RoleOfficer))
		s.Equal(LevelFull, p.LevelFor(RoleManager))
		s.Equal(LevelFull, p.LevelFor(RoleAdmin))
	})

	s.Run("unknown role falls back to the public column", func() {
		s.Equal(LevelNone, p.LevelFor(Role("superuser")))
	})
}

func (s *ModelsSuite) TestDefaultPolicy() {
	d := DefaultPolicy(EntityPayment, "cardNumber")

	s.Run("ordinary tiers get none", func() {
		s.Equal(LevelNone, d.Public)
		s.Equal(LevelNone, d.Officer)
		s.Equal(LevelNone, d.Manager)
	})

	s.Run("admin and break-glass get masked, never full", func() {
		s.Equal(LevelMasked, d.Admin)
		s.Equal(LevelMasked, d.BreakGlass)
	})

	s.Run("default row passes its own validation", func() {
		s.NoError(d.Validate())
	})
}

func (s *ModelsSuite) TestFieldPolicyValidate() {
	valid := FieldPolicy{
		EntityType: EntityBusiness,
		FieldName:  "abn",
		FieldKind:  KindIdentifier,
		Public:     LevelNone,
		Officer:    LevelPartial,
		Manager:    LevelFull,
		Admin:      LevelFull,
		BreakGlass: LevelFull,
	}

	s.Run("valid row passes", func() {
		s.NoError(valid.Validate())
	})

	s.Run("level outside the enum is rejected", func() {
		p := valid
		p.Officer = AccessLevel("readonly")
		err := p.Validate()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("blank field name is rejected", func() {
		p := valid
		p.FieldName = ""
		s.True(dErrors.HasCode(p.Validate(), dErrors.CodeValidation))
	})

	s.Run("unknown entity type is a configuration error", func() {
		p := valid
		p.EntityType = "vehicle"
		s.True(dErrors.HasCode(p.Validate(), dErrors.CodeConfiguration))
	})

	s.Run("unknown field kind is rejected", func() {
		p := valid
		p.FieldKind = "binary"
		s.True(dErrors.HasCode(p.Validate(), dErrors.CodeValidation))
	})
}
