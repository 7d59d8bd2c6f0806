// Package custody keeps off-chain balances for accounts the service holds
// value for: participants, the pool vault and the admin treasury.
package custody

import (
	"context"
	"errors"
	"math"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAccount    = errors.New("invalid custody account")
	ErrAmountTooLarge    = errors.New("amount exceeds custody range")
)

// MaxAmount is the largest balance a custody account can hold.
const MaxAmount = math.MaxInt64

// Ledger moves value between custody accounts.
type Ledger interface {
	// Transfer debits from and credits to atomically.
	Transfer(ctx context.Context, from, to string, amount uint64) error
	// Credit mints amount into account; used by operators funding accounts.
	Credit(ctx context.Context, account string, amount uint64) error
	Balance(ctx context.Context, account string) (uint64, error)
}

func checkTransfer(from, to string, amount uint64) error {
	if from == "" || to == "" {
		return ErrInvalidAccount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}
