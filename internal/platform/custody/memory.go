package custody

import (
	"context"
	"fmt"
	"sync"
)

type memoryLedger struct {
	mu       sync.Mutex
	balances map[string]uint64
}

func NewMemoryLedger() Ledger {
	return &memoryLedger{balances: make(map[string]uint64)}
}

func (l *memoryLedger) Transfer(_ context.Context, from, to string, amount uint64) error {
	if err := checkTransfer(from, to, amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, l.balances[from], amount)
	}
	if from == to {
		return nil
	}
	if l.balances[to] > MaxAmount-amount {
		return ErrAmountTooLarge
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *memoryLedger) Credit(_ context.Context, account string, amount uint64) error {
	if account == "" {
		return ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount > MaxAmount || l.balances[account] > MaxAmount-amount {
		return ErrAmountTooLarge
	}
	l.balances[account] += amount
	return nil
}

func (l *memoryLedger) Balance(_ context.Context, account string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}
