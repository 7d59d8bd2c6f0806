package repository

import (
	"context"
	"errors"
	"time"

	"prize-pool-backend/internal/features/pool/models"
)

var (
	ErrPoolNotFound  = errors.New("pool not found")
	ErrAlreadyLocked = errors.New("pool is locked by another operation")
	// ErrLockLost aborts a commit whose pool lock expired or changed hands
	// while the transaction ran.
	ErrLockLost = errors.New("pool lock lost before commit")
)

const (
	DefaultLockTTL     = 30 * time.Second
	DefaultLockWait    = 10 * time.Second
	DefaultHistorySize = 1000
)

// Tx is a staged view of one pool. Reads observe earlier writes of the same
// transaction; writes become visible only when the Atomic callback returns nil.
type Tx interface {
	// Pool returns ErrPoolNotFound when the pool was never initialized.
	Pool() (*models.Pool, error)
	PutPool(pool *models.Pool)

	// Deposit returns nil without error when the participant has no record.
	Deposit(owner string) (*models.DepositRecord, error)
	PutDeposit(record *models.DepositRecord)

	// Depositors returns every record in first-deposit order.
	Depositors() ([]*models.DepositRecord, error)

	AppendDraw(draw *models.Draw)
	AppendClaim(claim *models.Claim)
}

// PoolRepository persists pools and deposit records.
type PoolRepository interface {
	// Atomic runs fn serialized against every other Atomic call on the same
	// pool and commits its staged writes only if fn returns nil.
	Atomic(ctx context.Context, poolID string, fn func(ctx context.Context, tx Tx) error) error

	GetPool(ctx context.Context, poolID string) (*models.Pool, error)
	GetDeposit(ctx context.Context, poolID, owner string) (*models.DepositRecord, error)
	ListDeposits(ctx context.Context, poolID string) ([]*models.DepositRecord, error)
	ListDraws(ctx context.Context, poolID string, limit int) ([]*models.Draw, error)
	ListClaims(ctx context.Context, poolID string, limit int) ([]*models.Claim, error)
}
