package service

import (
	"context"
	"time"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/models"
)

const notifyTimeout = 10 * time.Second

// Notifier delivers out-of-band messages about completed draws and payouts.
type Notifier interface {
	NotifyWinner(ctx context.Context, draw *models.Draw) error
	NotifyPayout(ctx context.Context, claim *models.Claim) error
}

type notifyingService struct {
	PoolService
	notifier Notifier
}

// WithNotifications wraps svc so successful draws and claims notify the
// winner. Delivery runs in the background and never affects the result.
func WithNotifications(svc PoolService, notifier Notifier) PoolService {
	if notifier == nil {
		return svc
	}
	return &notifyingService{PoolService: svc, notifier: notifier}
}

func (s *notifyingService) SelectWinner(ctx context.Context, candidates []string) (*models.Draw, error) {
	draw, err := s.PoolService.SelectWinner(ctx, candidates)
	if err != nil {
		return nil, err
	}
	s.send("draw", draw.ID, func(ctx context.Context) error {
		return s.notifier.NotifyWinner(ctx, draw)
	})
	return draw, nil
}

func (s *notifyingService) Claim(ctx context.Context, authorizer, winner string) (*models.Claim, error) {
	claim, err := s.PoolService.Claim(ctx, authorizer, winner)
	if err != nil {
		return nil, err
	}
	s.send("claim", claim.ID, func(ctx context.Context) error {
		return s.notifier.NotifyPayout(ctx, claim)
	})
	return claim, nil
}

func (s *notifyingService) send(kind, id string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Debug().Err(err).Str("kind", kind).Str("id", id).Msg("Notification not delivered")
		}
	}()
}
