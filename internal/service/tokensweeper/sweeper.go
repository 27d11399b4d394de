package tokensweeper

import (
	"context"
	"time"

	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/models"
)

const (
	defaultSweepInterval = time.Minute
	defaultAccessTTL     = 15 * time.Minute
)

type tokenRepo interface {
	ExpireOlderThan(ctx context.Context, kind string, cutoff time.Time) (int64, error)
}

// Sweeper periodically marks usable access rows whose signature lifetime
// has already passed as expired. Rotation and logout keep the ledger fresh
// on their own; the sweeper covers sessions that simply went silent, so
// the ledger flags never disagree with the signature for long.
type Sweeper struct {
	interval  time.Duration
	accessTTL time.Duration
	tokens    tokenRepo
	logger    logger.Logger
}

func New(interval time.Duration, accessTTL time.Duration, tokens tokenRepo, l logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}

	return &Sweeper{
		interval:  interval,
		accessTTL: accessTTL,
		tokens:    tokens,
		logger:    l,
	}
}

// Run starts the sweep loop and returns a channel closed when the loop
// has fully stopped after context cancellation
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting token sweeper", "interval", s.interval, "access_ttl", s.accessTTL)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Token sweeper stopped by context")
				return

			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return idleStopped
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.accessTTL)

	n, err := s.tokens.ExpireOlderThan(ctx, models.TokenKindAccess, cutoff)
	if err != nil {
		s.logger.Error("Failed to expire stale tokens", "error", err)
		return
	}

	if n > 0 {
		s.logger.Info("Expired stale tokens", "count", n)
	}
}
