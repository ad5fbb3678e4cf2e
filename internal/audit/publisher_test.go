package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type PublisherSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *PublisherSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestSyncEmitAssignsIdentityAndTimestamp() {
	p := NewPublisher(s.store)

	err := p.Emit(s.ctx, Event{
		ActorID:   "officer-7",
		RequestID: "req-1",
		Action:    ActionBreakGlassCreated,
		Status:    "pending",
	})
	s.Require().NoError(err)

	events, err := s.store.ListByRequest(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.NotEmpty(events[0].ID)
	s.False(events[0].Timestamp.IsZero())
	s.Equal(ActionBreakGlassCreated, events[0].Action)
}

func (s *PublisherSuite) TestSyncEmitPreservesCallerTimestamp() {
	p := NewPublisher(s.store)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(p.Emit(s.ctx, Event{RequestID: "req-2", Action: ActionBreakGlassApproved, Timestamp: at}))

	events, err := s.store.ListByRequest(s.ctx, "req-2")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(at, events[0].Timestamp)
}

func (s *PublisherSuite) TestAsyncEmitDrainsOnClose() {
	p := NewPublisher(s.store,
		WithAsyncBuffer(16),
		WithPublisherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	for range 5 {
		s.Require().NoError(p.Emit(s.ctx, Event{RequestID: "req-3", Action: ActionBreakGlassExpired, Status: "expired"}))
	}
	p.Close()

	events, err := s.store.ListByRequest(s.ctx, "req-3")
	s.Require().NoError(err)
	s.Len(events, 5)
}
