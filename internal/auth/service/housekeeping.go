package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
)

// Sweeper drops expired rate-limit entries. *ratelimit.Limiter satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// HousekeepingService periodically releases elapsed account locks and
// sweeps expired rate-limit windows. Neither affects correctness; both keep
// state from growing.
type HousekeepingService struct {
	Store    store.Store
	Limiter  Sweeper
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 5 minutes.
func NewHousekeepingService(store store.Store, limiter Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &HousekeepingService{
		Store:    store,
		Limiter:  limiter,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress run has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single pass. A failing step does not stop the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	if s.Store != nil {
		n, err := s.Store.Accounts().ReleaseExpiredLocks(ctx, clock(s.Now))
		if err != nil {
			s.Logger.Error("failed to release expired locks", "error", err)
		} else if n > 0 {
			s.Logger.Info("released expired account locks", "count", n)
		}
	}

	if s.Limiter != nil {
		n, err := s.Limiter.Sweep(ctx)
		if err != nil {
			s.Logger.Error("failed to sweep rate-limit entries", "error", err)
		} else {
			s.Logger.Debug("swept rate-limit entries", "count", n)
		}
	}
}
