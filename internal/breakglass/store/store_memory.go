package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
)

// InMemoryStore keeps break-glass requests in memory for tests and
// development. Transitions take the same pre-state checks as the SQL store,
// under a single mutex, so conflict semantics match.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*models.Request
}

// New constructs an empty in-memory break-glass store.
func New() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*models.Request)}
}

func (s *InMemoryStore) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyReq := *req
	s.requests[req.ID] = &copyReq
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copyReq := *req
	return &copyReq, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, req := range s.requests {
		if req.UserID == userID {
			copyReq := *req
			out = append(out, &copyReq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Approve(_ context.Context, id, authorizerID string, approvedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != models.StatusPending {
		return ErrConflict
	}
	req.Status = models.StatusApproved
	req.AuthorizerID = authorizerID
	req.ApprovedAt = &approvedAt
	req.ExpiresAt = &expiresAt
	return nil
}

func (s *InMemoryStore) Deny(_ context.Context, id, authorizerID string, deniedAt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != models.StatusPending {
		return ErrConflict
	}
	req.Status = models.StatusDenied
	req.AuthorizerID = authorizerID
	req.DeniedAt = &deniedAt
	req.DenialReason = reason
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id, actorID string, revokedAt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	// Only an open window can be revoked; a clock-expired approval is already
	// terminal even if no sweep has flipped the row yet.
	if req.Status != models.StatusApproved || req.ExpiresAt == nil || !revokedAt.Before(*req.ExpiresAt) {
		return ErrConflict
	}
	req.Status = models.StatusRevoked
	req.RevokedAt = &revokedAt
	req.RevocationReason = reason
	return nil
}

func (s *InMemoryStore) Expire(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return false, ErrNotFound
	}
	if req.Status == models.StatusExpired {
		return false, nil
	}
	if req.Status != models.StatusApproved || req.ExpiresAt == nil || now.Before(*req.ExpiresAt) {
		return false, ErrConflict
	}
	req.Status = models.StatusExpired
	return true, nil
}

func (s *InMemoryStore) ExpireDue(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []string
	for id, req := range s.requests {
		if req.Status == models.StatusApproved && req.ExpiresAt != nil && !now.Before(*req.ExpiresAt) {
			req.Status = models.StatusExpired
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired, nil
}

var _ Store = (*InMemoryStore)(nil)
