package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Vumbi2018/lgis-sub001/internal/audit"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/store"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	service    *Service
	auditStore *audit.InMemoryStore
	now        time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.auditStore = audit.NewInMemoryStore()
	s.service = NewService(
		store.New(),
		audit.NewPublisher(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return s.now }),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func validPolicy() *models.FieldPolicy {
	return &models.FieldPolicy{
		EntityType: models.EntityCitizen,
		FieldName:  "national_id",
		FieldKind:  models.KindIdentifier,
		Public:     models.LevelNone,
		Officer:    models.LevelMasked,
		Manager:    models.LevelFull,
		Admin:      models.LevelFull,
		BreakGlass: models.LevelFull,
	}
}

func (s *ServiceSuite) TestUpsert_ValidatesRow() {
	s.Run("unknown access level is rejected", func() {
		p := validPolicy()
		p.Officer = models.AccessLevel("readonly")
		_, err := s.service.Upsert(s.ctx, "admin-1", p)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing field name is rejected", func() {
		p := validPolicy()
		p.FieldName = ""
		_, err := s.service.Upsert(s.ctx, "admin-1", p)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing actor is rejected", func() {
		_, err := s.service.Upsert(s.ctx, "", validPolicy())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestUpsert_PreservesCreationTime() {
	first, err := s.service.Upsert(s.ctx, "admin-1", validPolicy())
	s.Require().NoError(err)
	s.Equal(s.now, first.CreatedAt)

	s.now = s.now.Add(time.Hour)
	update := validPolicy()
	update.Officer = models.LevelPartial
	second, err := s.service.Upsert(s.ctx, "admin-1", update)
	s.Require().NoError(err)

	s.Equal(first.CreatedAt, second.CreatedAt)
	s.Equal(s.now, second.UpdatedAt)
	s.Equal(models.LevelPartial, second.Officer)
}

func (s *ServiceSuite) TestUpsert_EmitsAudit() {
	_, err := s.service.Upsert(s.ctx, "admin-1", validPolicy())
	s.Require().NoError(err)

	events, err := s.auditStore.ListByRequest(s.ctx, "policy:citizen.national_id")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionPolicyUpserted, events[0].Action)
	s.Equal("admin-1", events[0].ActorID)
}

func (s *ServiceSuite) TestGet_FallsBackToDefault() {
	p, err := s.service.Get(s.ctx, models.EntityCitizen, "unconfigured_field")
	s.Require().NoError(err)
	s.Equal(models.LevelNone, p.Public)
	s.Equal(models.LevelNone, p.Officer)
	s.Equal(models.LevelNone, p.Manager)
	s.Equal(models.LevelMasked, p.Admin)
	s.Equal(models.LevelMasked, p.BreakGlass)
}

func (s *ServiceSuite) TestList_SortedAndValidated() {
	for _, name := range []string{"postal_code", "national_id", "full_name"} {
		p := validPolicy()
		p.FieldName = name
		_, err := s.service.Upsert(s.ctx, "admin-1", p)
		s.Require().NoError(err)
	}

	rows, err := s.service.List(s.ctx, models.EntityCitizen)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("full_name", rows[0].FieldName)
	s.Equal("national_id", rows[1].FieldName)
	s.Equal("postal_code", rows[2].FieldName)

	_, err = s.service.List(s.ctx, models.EntityType("vehicle"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}
