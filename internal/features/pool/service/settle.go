package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/models"
	"prize-pool-backend/internal/features/pool/repository"
)

const (
	settleAttempts = 3
	settleBackoff  = 200 * time.Millisecond
	settleTimeout  = 30 * time.Second
)

// errStale stops a roll-forward whose preconditions no longer hold.
var errStale = errors.New("ledger state changed since the transfer")

// The helpers below run when value already moved but the Atomic commit that
// should have recorded it failed. Inbound legs are reversed; outbound legs
// cannot be, so their ledger write is retried against fresh state.

func (s *poolService) refundDeposit(ctx context.Context, participant string, amount uint64, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if err := s.mover.Refund(ctx, participant, amount); err != nil {
		logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("pool_id", s.settings.PoolID).
			Str("participant", participant).
			Uint64("amount", amount).
			Msg("Deposit collected but neither recorded nor refunded")
		return fmt.Errorf("%w: %w", ErrUnreconciled, cause)
	}

	logger.Warn().
		Err(cause).
		Str("pool_id", s.settings.PoolID).
		Str("participant", participant).
		Uint64("amount", amount).
		Msg("Deposit refunded after failed commit")
	return cause
}

func (s *poolService) settleWithdraw(ctx context.Context, participant string, amount uint64, cause error) (*models.Receipt, error) {
	var receipt *models.Receipt
	err := s.rollForward(ctx, cause, func(ctx context.Context, tx repository.Tx) error {
		pool, rec, err := s.withdrawable(tx, participant, amount)
		if err != nil {
			return fmt.Errorf("%w: %w", errStale, err)
		}
		receipt = s.applyWithdraw(tx, pool, rec, amount)
		return nil
	})
	if err != nil {
		logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("pool_id", s.settings.PoolID).
			Str("participant", participant).
			Uint64("amount", amount).
			Msg("Withdrawal released but not recorded")
		return nil, fmt.Errorf("%w: %w", ErrUnreconciled, cause)
	}
	return receipt, nil
}

func (s *poolService) settleClaim(ctx context.Context, authorizer, winner string, amount uint64, cause error) (*models.Claim, error) {
	var claim *models.Claim
	err := s.rollForward(ctx, cause, func(ctx context.Context, tx repository.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return fmt.Errorf("%w: %w", errStale, err)
		}
		claim = s.applyClaim(tx, pool, authorizer, winner, amount)
		return nil
	})
	if err != nil {
		logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("pool_id", s.settings.PoolID).
			Str("winner", winner).
			Uint64("amount", amount).
			Msg("Reward paid but not recorded")
		return nil, fmt.Errorf("%w: %w", ErrUnreconciled, cause)
	}
	return claim, nil
}

func (s *poolService) rollForward(ctx context.Context, cause error, apply func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	logger.Warn().Err(cause).Str("pool_id", s.settings.PoolID).Msg("Commit failed after transfer, re-applying ledger write")

	var err error
	for attempt := 1; attempt <= settleAttempts; attempt++ {
		if err = s.repo.Atomic(ctx, s.settings.PoolID, apply); err == nil {
			return nil
		}
		if errors.Is(err, errStale) || attempt == settleAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * settleBackoff):
		}
	}
	return err
}
