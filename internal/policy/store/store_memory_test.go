package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func policyRowFor(entityType models.EntityType, fieldName string, officer models.AccessLevel) *models.FieldPolicy {
	return &models.FieldPolicy{
		EntityType: entityType,
		FieldName:  fieldName,
		FieldKind:  models.KindText,
		Public:     models.LevelNone,
		Officer:    officer,
		Manager:    models.LevelFull,
		Admin:      models.LevelFull,
		BreakGlass: models.LevelFull,
	}
}

func (s *MemoryStoreSuite) TestGetMiss() {
	_, err := s.store.Get(s.ctx, models.EntityCitizen, "nationalId")
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreSuite) TestUpsertThenGet() {
	row := policyRowFor(models.EntityCitizen, "nationalId", models.LevelMasked)
	s.Require().NoError(s.store.Upsert(s.ctx, row))

	got, err := s.store.Get(s.ctx, models.EntityCitizen, "nationalId")
	s.Require().NoError(err)
	s.Equal(models.LevelMasked, got.Officer)

	// The store hands out copies; mutating the result must not leak back.
	got.Officer = models.LevelFull
	again, err := s.store.Get(s.ctx, models.EntityCitizen, "nationalId")
	s.Require().NoError(err)
	s.Equal(models.LevelMasked, again.Officer)
}

func (s *MemoryStoreSuite) TestUpsertReplacesWholeRow() {
	s.Require().NoError(s.store.Upsert(s.ctx, policyRowFor(models.EntityPayment, "cardNumber", models.LevelMasked)))

	replacement := policyRowFor(models.EntityPayment, "cardNumber", models.LevelNone)
	replacement.Admin = models.LevelMasked
	s.Require().NoError(s.store.Upsert(s.ctx, replacement))

	got, err := s.store.Get(s.ctx, models.EntityPayment, "cardNumber")
	s.Require().NoError(err)
	s.Equal(models.LevelNone, got.Officer)
	s.Equal(models.LevelMasked, got.Admin)
}

func (s *MemoryStoreSuite) TestListSortedByFieldName() {
	for _, name := range []string{"suburb", "dateOfBirth", "nationalId"} {
		s.Require().NoError(s.store.Upsert(s.ctx, policyRowFor(models.EntityCitizen, name, models.LevelMasked)))
	}
	// A row for another entity type must not bleed into the listing.
	s.Require().NoError(s.store.Upsert(s.ctx, policyRowFor(models.EntityLicense, "holderName", models.LevelFull)))

	rows, err := s.store.List(s.ctx, models.EntityCitizen)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("dateOfBirth", rows[0].FieldName)
	s.Equal("nationalId", rows[1].FieldName)
	s.Equal("suburb", rows[2].FieldName)
}

func (s *MemoryStoreSuite) TestResolveDefaultsOnMiss() {
	resolved, err := Resolve(s.ctx, s.store, models.EntityBusiness, "unconfigured")
	s.Require().NoError(err)
	s.Equal(models.LevelNone, resolved.Officer)
	s.Equal(models.LevelMasked, resolved.Admin)
	s.Equal(models.LevelMasked, resolved.BreakGlass)
}
