package store

import (
	"context"
	"errors"
	"sync"

	"github.com/Vumbi2018/lgis-sub001/internal/platform/metrics"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

type cacheKey struct {
	entityType models.EntityType
	fieldName  string
}

// CachingStore is a read-through cache in front of another Store. Every field
// render triggers a lookup, so hits avoid the backing store entirely; misses
// are cached too (as absent rows) since the fail-closed default makes them
// a common steady state. Upsert writes through and refreshes the entry
// synchronously, so a policy change is visible to the next lookup in-process.
//
// It is a constructed object, not a process-wide singleton: tests and hosts
// instantiate their own.
type CachingStore struct {
	inner   Store
	metrics *metrics.Metrics

	mu      sync.RWMutex
	entries map[cacheKey]*cacheEntry
}

type cacheEntry struct {
	policy *models.FieldPolicy // nil records a confirmed miss
}

// CachingOption configures a CachingStore.
type CachingOption func(*CachingStore)

// WithMetrics counts decision-path lookups served by the cache.
func WithMetrics(m *metrics.Metrics) CachingOption {
	return func(s *CachingStore) {
		s.metrics = m
	}
}

// NewCaching wraps a store with an in-process read-through cache.
func NewCaching(inner Store, opts ...CachingOption) *CachingStore {
	s := &CachingStore{
		inner:   inner,
		entries: make(map[cacheKey]*cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CachingStore) Get(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	key := cacheKey{entityType: entityType, fieldName: fieldName}

	if s.metrics != nil {
		s.metrics.IncrementPolicyCacheReads()
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		if entry.policy == nil {
			return nil, ErrNotFound
		}
		copyRow := *entry.policy
		return &copyRow, nil
	}

	policy, err := s.inner.Get(ctx, entityType, fieldName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.put(key, nil)
			return nil, ErrNotFound
		}
		// Infrastructure failures are not cached.
		return nil, err
	}

	copyRow := *policy
	s.put(key, &copyRow)
	return policy, nil
}

// List always consults the backing store: it is an administrative read, not
// part of the decision hot path.
func (s *CachingStore) List(ctx context.Context, entityType models.EntityType) ([]*models.FieldPolicy, error) {
	return s.inner.List(ctx, entityType)
}

// Upsert writes through and replaces the cached entry before returning, so
// the whole row becomes visible at once.
func (s *CachingStore) Upsert(ctx context.Context, policy *models.FieldPolicy) error {
	if err := s.inner.Upsert(ctx, policy); err != nil {
		return err
	}
	copyRow := *policy
	s.put(cacheKey{entityType: policy.EntityType, fieldName: policy.FieldName}, &copyRow)
	return nil
}

func (s *CachingStore) put(key cacheKey, policy *models.FieldPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &cacheEntry{policy: policy}
}

var _ Store = (*CachingStore)(nil)
