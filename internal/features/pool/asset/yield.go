package asset

import (
	"context"
	"fmt"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/service"
	"prize-pool-backend/internal/platform/yield"
)

// Yield forwards everything the inner mover collects into a lending venue
// and redeems from it before releasing.
type Yield struct {
	inner service.AssetMover
	venue yield.Venue
	vault string
}

var _ service.AssetMover = (*Yield)(nil)

func NewYield(inner service.AssetMover, venue yield.Venue, vault string) *Yield {
	return &Yield{inner: inner, venue: venue, vault: vault}
}

func (y *Yield) Collect(ctx context.Context, participant string, amount uint64) error {
	if err := y.inner.Collect(ctx, participant, amount); err != nil {
		return err
	}

	if _, err := y.venue.Supply(ctx, y.vault, amount); err != nil {
		if rbErr := y.inner.Refund(ctx, participant, amount); rbErr != nil {
			logger.Error().Err(rbErr).Str("participant", participant).Uint64("amount", amount).
				Msg("Failed to refund deposit after venue supply failure")
		}
		return fmt.Errorf("%w: %s supply: %w", service.ErrYieldVenue, y.venue.ID(), err)
	}
	return nil
}

func (y *Yield) Release(ctx context.Context, participant string, amount uint64) error {
	if _, err := y.venue.Redeem(ctx, y.vault, amount); err != nil {
		return fmt.Errorf("%w: %s redeem: %w", service.ErrYieldVenue, y.venue.ID(), err)
	}

	if err := y.inner.Release(ctx, participant, amount); err != nil {
		if _, rbErr := y.venue.Supply(ctx, y.vault, amount); rbErr != nil {
			logger.Error().Err(rbErr).Str("participant", participant).Uint64("amount", amount).
				Msg("Failed to resupply venue after release failure")
		}
		return err
	}
	return nil
}

// Refund pulls a just-supplied deposit back out of the venue and returns it
// over the inbound leg.
func (y *Yield) Refund(ctx context.Context, participant string, amount uint64) error {
	if _, err := y.venue.Redeem(ctx, y.vault, amount); err != nil {
		return fmt.Errorf("%w: %s redeem: %w", service.ErrYieldVenue, y.venue.ID(), err)
	}

	if err := y.inner.Refund(ctx, participant, amount); err != nil {
		if _, rbErr := y.venue.Supply(ctx, y.vault, amount); rbErr != nil {
			logger.Error().Err(rbErr).Str("participant", participant).Uint64("amount", amount).
				Msg("Failed to resupply venue after refund failure")
		}
		return err
	}
	return nil
}

// Payout is funded by the treasury, not the venue.
func (y *Yield) Payout(ctx context.Context, admin, winner string, amount uint64) error {
	return y.inner.Payout(ctx, admin, winner, amount)
}
