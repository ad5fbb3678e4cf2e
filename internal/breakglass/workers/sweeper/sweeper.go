// Package sweeper settles overdue break-glass approvals in the background.
// Enforcement never depends on it: the read path evaluates windows lazily.
// The sweep only keeps stored statuses and the active-grants gauge honest.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Ledger is the slice of the break-glass service the sweeper drives.
type Ledger interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

type Sweeper struct {
	ledger   Ledger
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

func New(ledger Ledger, opts ...Option) *Sweeper {
	s := &Sweeper{
		ledger:   ledger,
		logger:   slog.Default(),
		interval: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			expired, err := s.RunOnce(ctx)
			duration := time.Since(start)

			if err != nil {
				s.logger.Error("break_glass_sweep_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				continue
			}
			if expired > 0 {
				s.logger.Info("break_glass_sweep_completed",
					"expired", expired,
					"duration_ms", duration.Milliseconds(),
				)
			}

		case <-ctx.Done():
			s.logger.Info("break-glass sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep. Logging is handled by the caller (Start).
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	return s.ledger.ExpireDue(ctx, s.now())
}
