package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// InMemoryStore keeps field policy rows in memory for tests and development.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[models.EntityType]map[string]*models.FieldPolicy
}

// New constructs an empty in-memory policy store.
func New() *InMemoryStore {
	return &InMemoryStore{policies: make(map[models.EntityType]map[string]*models.FieldPolicy)}
}

func (s *InMemoryStore) Get(_ context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.policies[entityType]
	row, ok := rows[fieldName]
	if !ok {
		return nil, ErrNotFound
	}
	copyRow := *row
	return &copyRow, nil
}

// List returns rows sorted by field name for deterministic display.
func (s *InMemoryStore) List(_ context.Context, entityType models.EntityType) ([]*models.FieldPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.policies[entityType]
	out := make([]*models.FieldPolicy, 0, len(rows))
	for _, row := range rows {
		copyRow := *row
		out = append(out, &copyRow)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldName < out[j].FieldName })
	return out, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, policy *models.FieldPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.policies[policy.EntityType]
	if !ok {
		rows = make(map[string]*models.FieldPolicy)
		s.policies[policy.EntityType] = rows
	}
	copyRow := *policy
	rows[policy.FieldName] = &copyRow
	return nil
}

var _ Store = (*InMemoryStore)(nil)
