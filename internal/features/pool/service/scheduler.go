package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"prize-pool-backend/internal/common/logger"
)

// DrawScheduler triggers a selection on a fixed interval. Rejections that
// simply mean "not yet" are logged at debug level.
type DrawScheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	svc      PoolService
	interval time.Duration
	wg       sync.WaitGroup
}

func NewDrawScheduler(svc PoolService, interval time.Duration) *DrawScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &DrawScheduler{
		ctx:      ctx,
		cancel:   cancel,
		svc:      svc,
		interval: interval,
	}
}

func (s *DrawScheduler) Start() {
	logger.Info().Dur("interval", s.interval).Msg("Starting draw scheduler")
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *DrawScheduler) Stop() {
	logger.Info().Msg("Stopping draw scheduler")
	s.cancel()
	s.wg.Wait()
	logger.Info().Msg("Draw scheduler stopped")
}

func (s *DrawScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	draw, err := s.svc.SelectWinner(ctx, nil)
	switch {
	case err == nil:
		logger.Info().Str("draw_id", draw.ID).Str("winner", draw.Winner).Msg("Scheduled draw completed")
	case errors.Is(err, ErrVrf), errors.Is(err, ErrNoDepositors), errors.Is(err, ErrPoolNotInitialized):
		logger.Debug().Err(err).Msg("Scheduled draw skipped")
	default:
		logger.Error().Err(err).Msg("Scheduled draw failed")
	}
}
