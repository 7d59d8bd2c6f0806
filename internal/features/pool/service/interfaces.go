package service

import (
	"context"

	"prize-pool-backend/internal/features/pool/models"
)

// AssetMover moves value in and out of pool custody. Implementations exist
// per pool variant.
type AssetMover interface {
	// Collect moves amount from participant into the pool vault.
	Collect(ctx context.Context, participant string, amount uint64) error
	// Release moves amount from the pool vault back to participant, signed
	// by the pool's own authority.
	Release(ctx context.Context, participant string, amount uint64) error
	// Payout moves a reward to winner from the admin's treasury.
	Payout(ctx context.Context, admin, winner string, amount uint64) error
	// Refund reverses a Collect whose deposit could not be recorded.
	Refund(ctx context.Context, participant string, amount uint64) error
}

type PoolService interface {
	Initialize(ctx context.Context, admin string) (*models.Pool, error)
	Deposit(ctx context.Context, participant string, amount uint64) (*models.Receipt, error)
	Withdraw(ctx context.Context, participant string, amount uint64) (*models.Receipt, error)
	// SelectWinner draws among candidates in the given order, or among every
	// depositor in first-deposit order when candidates is empty.
	SelectWinner(ctx context.Context, candidates []string) (*models.Draw, error)
	// Claim pays the accumulated reward to winner, or to the last drawn
	// winner when winner is empty.
	Claim(ctx context.Context, authorizer, winner string) (*models.Claim, error)

	GetPool(ctx context.Context) (*models.Pool, error)
	GetDeposit(ctx context.Context, participant string) (*models.DepositRecord, error)
	ListDeposits(ctx context.Context) ([]*models.DepositRecord, error)
	ListDraws(ctx context.Context, limit int) ([]*models.Draw, error)
	ListClaims(ctx context.Context, limit int) ([]*models.Claim, error)
}
