package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// countingStore wraps a store and counts Get calls so cache behavior is observable.
type countingStore struct {
	Store
	gets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	c.gets.Add(1)
	return c.Store.Get(ctx, entityType, fieldName)
}

type CacheSuite struct {
	suite.Suite
	backing *countingStore
	cache   *CachingStore
	ctx     context.Context
}

func (s *CacheSuite) SetupTest() {
	s.backing = &countingStore{Store: New()}
	s.cache = NewCaching(s.backing)
	s.ctx = context.Background()
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) TestHitAvoidsBackingStore() {
	row := policyRowFor(models.EntityCitizen, "email", models.LevelMasked)
	s.Require().NoError(s.cache.Upsert(s.ctx, row))

	for range 3 {
		got, err := s.cache.Get(s.ctx, models.EntityCitizen, "email")
		s.Require().NoError(err)
		s.Equal(models.LevelMasked, got.Officer)
	}
	// Upsert refreshed the entry, so no Get ever reached the backing store.
	s.EqualValues(0, s.backing.gets.Load())
}

func (s *CacheSuite) TestMissIsCached() {
	for range 3 {
		_, err := s.cache.Get(s.ctx, models.EntityCitizen, "unconfigured")
		s.ErrorIs(err, ErrNotFound)
	}
	s.EqualValues(1, s.backing.gets.Load())
}

func (s *CacheSuite) TestUpsertInvalidatesSynchronously() {
	_, err := s.cache.Get(s.ctx, models.EntityPayment, "cardNumber")
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(s.cache.Upsert(s.ctx, policyRowFor(models.EntityPayment, "cardNumber", models.LevelPartial)))

	got, err := s.cache.Get(s.ctx, models.EntityPayment, "cardNumber")
	s.Require().NoError(err)
	s.Equal(models.LevelPartial, got.Officer)
}

// timestampingStore assigns storage-side timestamps on write, the way the
// Postgres store's RETURNING clause writes them back.
type timestampingStore struct {
	Store
	createdAt time.Time
	updatedAt time.Time
}

func (t *timestampingStore) Upsert(ctx context.Context, policy *models.FieldPolicy) error {
	if err := t.Store.Upsert(ctx, policy); err != nil {
		return err
	}
	policy.CreatedAt = t.createdAt
	policy.UpdatedAt = t.updatedAt
	return nil
}

func (s *CacheSuite) TestUpsertCachesThePersistedRow() {
	createdAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Hour)
	cache := NewCaching(&timestampingStore{Store: New(), createdAt: createdAt, updatedAt: updatedAt})

	row := policyRowFor(models.EntityCitizen, "email", models.LevelMasked)
	row.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) // stale caller value
	row.UpdatedAt = row.CreatedAt
	s.Require().NoError(cache.Upsert(s.ctx, row))

	got, err := cache.Get(s.ctx, models.EntityCitizen, "email")
	s.Require().NoError(err)
	s.True(got.CreatedAt.Equal(createdAt), "cache must hold the timestamps storage assigned")
	s.True(got.UpdatedAt.Equal(updatedAt))
}

func (s *CacheSuite) TestCachedRowsAreCopies() {
	s.Require().NoError(s.cache.Upsert(s.ctx, policyRowFor(models.EntityCitizen, "phone", models.LevelMasked)))

	got, err := s.cache.Get(s.ctx, models.EntityCitizen, "phone")
	s.Require().NoError(err)
	got.Officer = models.LevelFull

	again, err := s.cache.Get(s.ctx, models.EntityCitizen, "phone")
	s.Require().NoError(err)
	s.Equal(models.LevelMasked, again.Officer)
}
