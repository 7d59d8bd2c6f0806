// Package yield integrates an external lending venue that accepts
// deposited liquidity in exchange for collateral shares.
package yield

import (
	"context"
	"errors"
	"fmt"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/platform/custody"
)

var ErrInvalidAmount = errors.New("venue amount must be positive")

// Venue is a lending market. Shares are the venue's collateral tokens.
type Venue interface {
	ID() string
	// Supply moves amount from holder into the reserve and mints shares to holder.
	Supply(ctx context.Context, holder string, amount uint64) (uint64, error)
	// Redeem burns shares of holder and returns the underlying to holder.
	Redeem(ctx context.Context, holder string, shares uint64) (uint64, error)
	Position(ctx context.Context, holder string) (Position, error)
}

type Position struct {
	Shares  uint64 `json:"shares"`
	Reserve uint64 `json:"reserve"`
}

// ReserveVenue is a venue with a fixed 1:1 share rate whose reserve and
// share balances live in the custody ledger.
type ReserveVenue struct {
	id     string
	ledger custody.Ledger
}

func NewReserveVenue(id string, ledger custody.Ledger) *ReserveVenue {
	return &ReserveVenue{id: id, ledger: ledger}
}

func (v *ReserveVenue) ID() string { return v.id }

func (v *ReserveVenue) reserveAccount() string {
	return "yield:" + v.id + ":reserve"
}

func (v *ReserveVenue) burnAccount() string {
	return "yield:" + v.id + ":burned"
}

func (v *ReserveVenue) shareAccount(holder string) string {
	return "yield:" + v.id + ":ctoken:" + holder
}

func (v *ReserveVenue) Supply(ctx context.Context, holder string, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	if err := v.ledger.Transfer(ctx, holder, v.reserveAccount(), amount); err != nil {
		return 0, fmt.Errorf("supply liquidity: %w", err)
	}

	shares := amount
	if err := v.ledger.Credit(ctx, v.shareAccount(holder), shares); err != nil {
		if rbErr := v.ledger.Transfer(ctx, v.reserveAccount(), holder, amount); rbErr != nil {
			logger.Error().Err(rbErr).Str("venue", v.id).Str("holder", holder).Uint64("amount", amount).
				Msg("Failed to return liquidity after share mint failure")
		}
		return 0, fmt.Errorf("mint shares: %w", err)
	}
	return shares, nil
}

func (v *ReserveVenue) Redeem(ctx context.Context, holder string, shares uint64) (uint64, error) {
	if shares == 0 {
		return 0, ErrInvalidAmount
	}

	if err := v.ledger.Transfer(ctx, v.shareAccount(holder), v.burnAccount(), shares); err != nil {
		return 0, fmt.Errorf("burn shares: %w", err)
	}

	amount := shares
	if err := v.ledger.Transfer(ctx, v.reserveAccount(), holder, amount); err != nil {
		if rbErr := v.ledger.Transfer(ctx, v.burnAccount(), v.shareAccount(holder), shares); rbErr != nil {
			logger.Error().Err(rbErr).Str("venue", v.id).Str("holder", holder).Uint64("shares", shares).
				Msg("Failed to restore shares after redeem failure")
		}
		return 0, fmt.Errorf("redeem liquidity: %w", err)
	}
	return amount, nil
}

func (v *ReserveVenue) Position(ctx context.Context, holder string) (Position, error) {
	shares, err := v.ledger.Balance(ctx, v.shareAccount(holder))
	if err != nil {
		return Position{}, err
	}
	reserve, err := v.ledger.Balance(ctx, v.reserveAccount())
	if err != nil {
		return Position{}, err
	}
	return Position{Shares: shares, Reserve: reserve}, nil
}
